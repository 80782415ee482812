package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// MemoryAlertStore keeps alert rules in memory. Rules are small and the
// evaluator reads them on every signal, so an in-process map beats a round
// trip; durable history lives in the trigger store.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts map[string]*models.Alert
}

func NewMemoryAlertStore() repository.AlertStore {
	return &MemoryAlertStore{alerts: make(map[string]*models.Alert)}
}

func (s *MemoryAlertStore) Create(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.alerts[a.ID]; exists {
		return fmt.Errorf("alert %s already exists", a.ID)
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *MemoryAlertStore) Get(ctx context.Context, id string) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAlertStore) Update(ctx context.Context, a *models.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[a.ID]; !ok {
		return fmt.Errorf("alert %s: %w", a.ID, models.ErrNotFound)
	}
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *MemoryAlertStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alerts[id]; !ok {
		return fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
	}
	delete(s.alerts, id)
	return nil
}

func (s *MemoryAlertStore) List(ctx context.Context) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryAlertStore) ListBySymbol(ctx context.Context, symbol string) ([]*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Alert
	for _, a := range s.alerts {
		if a.Symbol == symbol {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryAlertStore) SetLastTriggered(ctx context.Context, id string, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return fmt.Errorf("alert %s: %w", id, models.ErrNotFound)
	}
	t := ts
	a.LastTriggeredAt = &t
	return nil
}
