package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saylorsolutions/busx/slogx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenCtx(t *testing.T) {
	t.Run("Happy path", func(t *testing.T) {
		var (
			srv                            = make(chan struct{})
			serverListened, serverShutdown atomic.Bool
			serveFn                        = func() error {
				serverListened.Store(true)
				<-srv
				return nil
			}
			shutdownFn = func(ctx context.Context) error {
				serverShutdown.Store(true)
				close(srv)
				return nil
			}
		)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, listenCtx(ctx, serveFn, shutdownFn, 500*time.Millisecond))
		assert.True(t, serverListened.Load(), "Server listen function should have been called")
		assert.True(t, serverShutdown.Load(), "Server shutdown function should have been called")
	})
	t.Run("Server error propagated", func(t *testing.T) {
		var (
			srv                                  = make(chan struct{})
			errServerListened, errServerShutdown atomic.Bool
			errTestShutdown                      = errors.New("test error")
			errListenFn                          = func() error {
				defer close(srv)
				errServerListened.Store(true)
				return errTestShutdown
			}
			errShutdownFn = func(ctx context.Context) error {
				errServerShutdown.Store(true)
				return nil
			}
		)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.ErrorIs(t, listenCtx(ctx, errListenFn, errShutdownFn, 500*time.Millisecond), errTestShutdown)
		assert.True(t, errServerListened.Load(), "Server listen function should have been called")
		assert.False(t, errServerShutdown.Load(), "Server shutdown function should NOT have been called because the listener returns an error")
	})
	t.Run("Wrapped server closed error ignored", func(t *testing.T) {
		closedFn := func() error {
			return fmt.Errorf("serving metrics: %w", http.ErrServerClosed)
		}
		shutdownFn := func(ctx context.Context) error {
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, listenCtx(ctx, closedFn, shutdownFn, 500*time.Millisecond))
	})
}

func TestWrap_Order(t *testing.T) {
	var order []string
	layer := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	handler := Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), layer("a"), layer("b"))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)
	assert.Panics(t, func() {
		Wrap(nil)
	})
}

func TestLogging_Recovery(t *testing.T) {
	abs := slogx.NewAbsorber(slog.LevelDebug)
	log := slog.New(abs)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := Wrap(mux, Logging(log, slog.LevelDebug), Recovery(log))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, 2, abs.Count(slog.LevelDebug))
	require.Equal(t, 1, abs.Count(slog.LevelError))
	var statuses []int64
	for _, r := range abs.Records() {
		if r.Level == slog.LevelDebug {
			statuses = append(statuses, r.Attrs["status"].Int64())
		}
	}
	assert.Equal(t, []int64{http.StatusAccepted, http.StatusInternalServerError}, statuses)
}
