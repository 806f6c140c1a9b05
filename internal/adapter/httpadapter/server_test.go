package httpadapter_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/couchcryptid/quake-alert-etl/internal/adapter/httpadapter"
	"github.com/stretchr/testify/assert"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func serve(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	srv := httpadapter.NewServer(":0", slog.Default(), &mockReadiness{err: errors.New("no run yet")})

	assert.Equal(t, http.StatusOK, serve(t, srv, "/healthz").Code)
}

func TestReadyzReturns200WhenAllReady(t *testing.T) {
	srv := httpadapter.NewServer(":0", slog.Default(), &mockReadiness{}, &mockReadiness{})

	assert.Equal(t, http.StatusOK, serve(t, srv, "/readyz").Code)
}

func TestReadyzReturns503WhenAnyNotReady(t *testing.T) {
	srv := httpadapter.NewServer(":0", slog.Default(),
		&mockReadiness{},
		&mockReadiness{err: errors.New("pipeline has not completed a run yet")},
	)

	rec := serve(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline has not completed a run yet")
}

func TestReadyzWithoutChecks(t *testing.T) {
	srv := httpadapter.NewServer(":0", slog.Default())

	assert.Equal(t, http.StatusOK, serve(t, srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httpadapter.NewServer(":0", slog.Default())

	rec := serve(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
