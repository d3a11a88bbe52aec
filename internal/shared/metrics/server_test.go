package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthzAggregatesChecks(t *testing.T) {
	h := Handler(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHealthzReportsFailingCheck(t *testing.T) {
	h := Handler(
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return errors.New("pg down") },
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "pg down")
}

// Serviços sem dependências externas (gateway, feed) sobem sem checagens
func TestHealthzNoChecks(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsExposesDomainCollectors(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "game_payout_cents_total")
	assert.Contains(t, rec.Body.String(), "game_audit_mismatches_total")
}
