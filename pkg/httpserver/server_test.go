package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/enrollkit/pkg/httpserver"
)

func TestServer_RunAndShutdown(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.Config{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: time.Second,
	}, httpserver.WithLogger(discardLogger()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
	}()

	// Give the listener a moment to come up, then trigger graceful shutdown.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestServer_StartFailure(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.Config{
		Addr:            "256.256.256.256:99999",
		ShutdownTimeout: time.Second,
	}, httpserver.WithLogger(discardLogger()))

	err := srv.Run(context.Background(), http.NewServeMux())
	assert.True(t, errors.Is(err, httpserver.ErrStart))
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	log := discardLogger()

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		httpserver.HealthCheckHandler(context.Background(), log)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("readiness all healthy", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		ok := func(context.Context) error { return nil }
		httpserver.HealthCheckHandler(context.Background(), log, ok, ok)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("readiness dependency failure", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		failing := func(context.Context) error { return errors.New("redis down") }
		httpserver.HealthCheckHandler(context.Background(), log, failing)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "NOT_READY", rec.Body.String())
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
