// Package netmon observes network reachability of the remote API.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/occasio/occasio/internal/logging"
)

const probeTimeout = 3 * time.Second

// Monitor keeps a cached connectivity flag current by probing the API root
// on a fixed interval, and notifies subscribers on state changes.
//
// The cached flag gates the periodic sync cycle; the one-shot Current check
// is used before network-only operations such as login and signup.
type Monitor struct {
	probeURL string
	interval time.Duration
	http     *http.Client
	log      logging.Logger

	connected atomic.Bool

	mu     sync.Mutex
	subs   map[int]func(bool)
	nextID int

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a Monitor probing probeURL every interval.
func New(probeURL string, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{
		probeURL: probeURL,
		interval: interval,
		http:     &http.Client{Timeout: probeTimeout},
		log:      log,
		subs:     make(map[int]func(bool)),
	}
}

// Current performs a one-shot reachability probe and updates the cached flag.
func (m *Monitor) Current(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.probeURL, nil)
	if err != nil {
		m.setConnected(ctx, false)
		return false
	}

	resp, err := m.http.Do(req)
	if err != nil {
		m.setConnected(ctx, false)
		return false
	}
	defer resp.Body.Close()

	ok := resp.StatusCode < 500
	m.setConnected(ctx, ok)
	return ok
}

// Connected returns the cached connectivity state.
func (m *Monitor) Connected() bool {
	return m.connected.Load()
}

// OnChange registers a handler invoked on every connectivity transition.
// The returned function unsubscribes it.
func (m *Monitor) OnChange(fn func(connected bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Start launches the watcher goroutine. It runs until Stop is called or the
// parent context is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.Current(ctx)

	go func() {
		defer close(m.done)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Current(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the watcher goroutine and waits for it to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

func (m *Monitor) setConnected(ctx context.Context, connected bool) {
	if m.connected.Swap(connected) == connected {
		return
	}

	m.log.Info(ctx, "connectivity changed", "connected", connected)

	m.mu.Lock()
	handlers := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		handlers = append(handlers, fn)
	}
	m.mu.Unlock()

	for _, fn := range handlers {
		fn(connected)
	}
}
