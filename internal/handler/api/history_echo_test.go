package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ElectricHyena/stock-predictor-sub001/internal/domain/models"
	"github.com/ElectricHyena/stock-predictor-sub001/pkg/logger"
)

type stubMarketStore struct {
	bars   []*models.Bar
	events []*models.NewsEvent
	down   bool

	lastSymbol string
	lastLimit  int
}

func (s *stubMarketStore) Init(ctx context.Context) error                    { return nil }
func (s *stubMarketStore) StoreBar(ctx context.Context, b *models.Bar) error { return nil }
func (s *stubMarketStore) StoreEvent(ctx context.Context, e *models.NewsEvent) error {
	return nil
}

func (s *stubMarketStore) QueryBars(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Bar, error) {
	s.lastSymbol, s.lastLimit = symbol, limit
	var out []*models.Bar
	for _, b := range s.bars {
		if b.Symbol == symbol && !b.Timestamp.Before(from) && !b.Timestamp.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubMarketStore) QueryEvents(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.NewsEvent, error) {
	s.lastSymbol, s.lastLimit = symbol, limit
	var out []*models.NewsEvent
	for _, e := range s.events {
		if e.Symbol == symbol && !e.Timestamp.Before(from) && !e.Timestamp.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubMarketStore) Health(ctx context.Context) error {
	if s.down {
		return errors.New("connection refused")
	}
	return nil
}

func historyTestServer(t *testing.T, store *stubMarketStore) *echo.Echo {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	e := echo.New()
	NewHistoryEchoHandler(log, store).RegisterRoutes(e)
	return e
}

func historyDay(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestHistoryBarsReturnsStoredRange(t *testing.T) {
	store := &stubMarketStore{bars: []*models.Bar{
		{Symbol: "ACME", Timestamp: historyDay(0), Close: 100},
		{Symbol: "ACME", Timestamp: historyDay(1), Close: 103},
		{Symbol: "ACME", Timestamp: historyDay(10), Close: 120},
		{Symbol: "OTHER", Timestamp: historyDay(1), Close: 50},
	}}
	e := historyTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/history/bars/acme?from=2026-01-01&to=2026-01-05", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ACME", store.lastSymbol)
	require.Equal(t, historyDefaultLimit, store.lastLimit)

	var body struct {
		Data struct {
			Rows  []json.RawMessage `json:"rows"`
			Total int64             `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(2), body.Data.Total)
	require.Len(t, body.Data.Rows, 2)
}

func TestHistoryEventsFilterBySymbol(t *testing.T) {
	store := &stubMarketStore{events: []*models.NewsEvent{
		{ID: "e1", Symbol: "ACME", Timestamp: historyDay(1), Type: models.EventEarnings},
		{ID: "e2", Symbol: "OTHER", Timestamp: historyDay(1), Type: models.EventEarnings},
	}}
	e := historyTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/history/events/ACME", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Total int64 `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(1), body.Data.Total)
}

func envelopeStatus(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Status
}

func TestHistoryRejectsMalformedTimeRange(t *testing.T) {
	e := historyTestServer(t, &stubMarketStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/history/bars/ACME?from=yesterday", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, envelopeStatus(t, rec))
}

func TestHistoryLimitIsClamped(t *testing.T) {
	store := &stubMarketStore{}
	e := historyTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/api/history/bars/ACME?limit=999999", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, historyDefaultLimit, store.lastLimit)
}

func TestHealthzReflectsStorage(t *testing.T) {
	store := &stubMarketStore{}
	e := historyTestServer(t, store)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, envelopeStatus(t, rec))

	store.down = true
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, envelopeStatus(t, rec))
}
