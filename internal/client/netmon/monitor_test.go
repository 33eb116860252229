package netmon

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/occasio/occasio/internal/logging"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCurrent_ReachableServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, time.Minute, testLogger())

	require.True(t, m.Current(context.Background()))
	require.True(t, m.Connected())
}

func TestCurrent_UnreachableServer(t *testing.T) {
	m := New("http://127.0.0.1:1", time.Minute, testLogger())

	require.False(t, m.Current(context.Background()))
	require.False(t, m.Connected())
}

func TestCurrent_ServerErrorCountsAsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, time.Minute, testLogger())

	require.False(t, m.Current(context.Background()))
}

func TestOnChange_NotifiesOnTransition(t *testing.T) {
	var up atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if up.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, time.Minute, testLogger())

	var transitions []bool
	unsubscribe := m.OnChange(func(connected bool) {
		transitions = append(transitions, connected)
	})

	ctx := context.Background()

	up.Store(true)
	m.Current(ctx)
	up.Store(false)
	m.Current(ctx)
	m.Current(ctx) // no transition, no notification

	require.Equal(t, []bool{true, false}, transitions)

	unsubscribe()
	up.Store(true)
	m.Current(ctx)
	require.Equal(t, []bool{true, false}, transitions, "unsubscribed handler must not fire")
}

func TestStartStop_WatcherLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	m := New(srv.URL, 10*time.Millisecond, testLogger())
	m.Start(context.Background())

	require.Eventually(t, m.Connected, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Stop() // idempotent after the first call
}
