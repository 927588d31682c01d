package httpserver_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledash/billing/pkg/httpserver"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return ln
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	t.Run("serves until context is cancelled and runs hooks", func(t *testing.T) {
		t.Parallel()

		hookCalled := make(chan struct{})
		srv := httpserver.New(
			httpserver.WithShutdownTimeout(time.Second),
			httpserver.WithShutdownHook(func(context.Context) error {
				close(hookCalled)
				return nil
			}),
		)

		ln := listen(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() {
			done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "pong")
			}))
		}()

		resp, err := http.Get("http://" + ln.Addr().String())
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, "pong", string(body))

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("serve did not return")
		}

		select {
		case <-hookCalled:
		default:
			t.Fatal("shutdown hook not called")
		}
		require.NoError(t, srv.Shutdown(context.Background()))
	})

	t.Run("drain hook ends long-lived handlers", func(t *testing.T) {
		t.Parallel()

		streamDone := make(chan struct{})
		stop := make(chan struct{})
		srv := httpserver.New(
			httpserver.WithShutdownTimeout(2*time.Second),
			httpserver.WithDrainHook(func() { close(stop) }),
		)

		ln := listen(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		started := make(chan struct{})
		go func() {
			done <- srv.Serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.(http.Flusher).Flush()
				close(started)
				<-stop
				close(streamDone)
			}))
		}()

		go func() {
			resp, err := http.Get("http://" + ln.Addr().String())
			if err == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}()
		<-started

		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("long-lived handler blocked shutdown")
		}
		<-streamDone
	})

	t.Run("hook errors are reported", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New(httpserver.WithShutdownHook(func(context.Context) error {
			return errors.New("sessions stuck")
		}))
		err := srv.Shutdown(context.Background())
		require.ErrorIs(t, err, httpserver.ErrShutdown)
		assert.Contains(t, err.Error(), "sessions stuck")
	})

	t.Run("second run is rejected", func(t *testing.T) {
		t.Parallel()

		srv := httpserver.New()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		first := listen(t)
		go func() { _ = srv.Serve(ctx, first, http.NotFoundHandler()) }()

		require.Eventually(t, func() bool {
			conn, err := net.Dial("tcp", first.Addr().String())
			if err != nil {
				return false
			}
			_ = conn.Close()
			return true
		}, time.Second, 10*time.Millisecond)

		err := srv.Serve(ctx, listen(t), http.NotFoundHandler())
		require.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
	})

	t.Run("bad address", func(t *testing.T) {
		t.Parallel()
		srv := httpserver.New(httpserver.WithAddr("256.0.0.1:bad"))
		err := srv.Run(context.Background(), nil)
		require.ErrorIs(t, err, httpserver.ErrStart)
	})
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		checks   []func(context.Context) error
		wantCode int
		wantBody string
	}{
		{name: "liveness", wantCode: http.StatusOK, wantBody: "ALIVE"},
		{
			name:     "ready",
			checks:   []func(context.Context) error{func(context.Context) error { return nil }},
			wantCode: http.StatusOK,
			wantBody: "READY",
		},
		{
			name: "dependency down",
			checks: []func(context.Context) error{
				func(context.Context) error { return nil },
				func(context.Context) error { return errors.New("postgres down") },
			},
			wantCode: http.StatusServiceUnavailable,
			wantBody: "NOT_READY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			httpserver.HealthCheckHandler(nil, tt.checks...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
