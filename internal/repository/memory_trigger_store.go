package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/repository"
)

// MemoryTriggerStore is the append-only trigger log with read/dismiss flags.
// An optional archiver mirrors appended triggers into durable history.
type MemoryTriggerStore struct {
	mu       sync.RWMutex
	triggers []*models.AlertTrigger
	byID     map[string]*models.AlertTrigger
	archiver TriggerArchiver
}

// TriggerArchiver receives every appended trigger for durable storage.
type TriggerArchiver interface {
	Archive(ctx context.Context, t *models.AlertTrigger) error
}

type MemoryTriggerStoreOption func(*MemoryTriggerStore)

// WithArchiver mirrors appended triggers into long-term history.
func WithArchiver(a TriggerArchiver) MemoryTriggerStoreOption {
	return func(s *MemoryTriggerStore) { s.archiver = a }
}

func NewMemoryTriggerStore(opts ...MemoryTriggerStoreOption) repository.TriggerStore {
	s := &MemoryTriggerStore{byID: make(map[string]*models.AlertTrigger)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryTriggerStore) Append(ctx context.Context, t *models.AlertTrigger) error {
	s.mu.Lock()
	cp := *t
	s.triggers = append(s.triggers, &cp)
	s.byID[cp.ID] = &cp
	s.mu.Unlock()

	if s.archiver != nil {
		// Archival is best effort; the in-memory log stays authoritative.
		_ = s.archiver.Archive(ctx, t)
	}
	return nil
}

func (s *MemoryTriggerStore) ListByAlert(ctx context.Context, alertID string, limit int) ([]*models.AlertTrigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AlertTrigger
	for i := len(s.triggers) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		t := s.triggers[i]
		if alertID != "" && t.AlertID != alertID {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryTriggerStore) ListUnread(ctx context.Context, limit int) ([]*models.AlertTrigger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AlertTrigger
	for i := len(s.triggers) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		t := s.triggers[i]
		if t.IsRead || t.DismissedAt != nil {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryTriggerStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("trigger %s: %w", id, models.ErrNotFound)
	}
	t.IsRead = true
	return nil
}

func (s *MemoryTriggerStore) Dismiss(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("trigger %s: %w", id, models.ErrNotFound)
	}
	ts := at
	t.DismissedAt = &ts
	return nil
}
