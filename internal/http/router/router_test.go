package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/http/response"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo/memory"
	"github.com/mahyar-jbr/dog-wash-booking/internal/service"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/config"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *mapStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func newTestRouter(t *testing.T, bookingsPerMinute int, store *mapStore) http.Handler {
	t.Helper()
	repo, err := memory.New("")
	require.NoError(t, err)
	svc := service.NewBookingService(repo, nil, nil, service.Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC) },
	})

	cfg := config.Load()
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.RateLimit.BookingsPerMinute = bookingsPerMinute
	cfg.Auth.JWTSecret = "test-secret"

	deps := Deps{Bookings: svc}
	if store != nil {
		deps.Idempotency = store
	}
	return New(cfg, deps)
}

func createRequest(at, idemKey string) *http.Request {
	body, _ := json.Marshal(map[string]interface{}{
		"customer_name":    "Ann",
		"customer_contact": "ann@example.com",
		"date":             "2025-06-02",
		"time":             at,
		"number_of_dogs":   1,
		"duration1":        30,
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	return req
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t, 10, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, 10, nil)
	req := httptest.NewRequest(http.MethodOptions, "/v1/bookings", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, Idempotency-Key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBookingSubmissionsAreRateLimited(t *testing.T) {
	h := newTestRouter(t, 2, nil)

	for _, at := range []string{"09:00", "10:00"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, createRequest(at, ""))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, createRequest("11:00", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var e response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	assert.Equal(t, response.CodeRateLimit, e.Code)

	// reads are not limited
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/store-hours?date=2025-06-02", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIdempotentReplay(t *testing.T) {
	store := &mapStore{data: map[string]string{}}
	h := newTestRouter(t, 10, store)

	first := httptest.NewRecorder()
	h.ServeHTTP(first, createRequest("09:00", "abc-123"))
	require.Equal(t, http.StatusCreated, first.Code)

	again := httptest.NewRecorder()
	h.ServeHTTP(again, createRequest("09:00", "abc-123"))
	assert.Equal(t, http.StatusCreated, again.Code)
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replay"))

	var a, b domain.Booking
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &b))
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, []int{1}, b.TubsUsed)

	// a fresh key books the second tub
	other := httptest.NewRecorder()
	h.ServeHTTP(other, createRequest("09:00", "abc-456"))
	require.Equal(t, http.StatusCreated, other.Code)
	var c domain.Booking
	require.NoError(t, json.Unmarshal(other.Body.Bytes(), &c))
	assert.Equal(t, []int{2}, c.TubsUsed)
}
