package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Prober performs one active reachability check. A nil error means online;
// any error means offline — probes never surface errors to callers.
type Prober interface {
	Probe(ctx context.Context) error
}

// HTTPProber issues a no-cache HEAD request against a lightweight resource.
type HTTPProber struct {
	url    string
	client *http.Client
}

func NewHTTPProber(url string, timeout time.Duration) *HTTPProber {
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	// Any response at all proves reachability; status is irrelevant.
	return resp.Body.Close()
}

// Pinger adapts anything with a Ping method (the pgx pool) into a Prober,
// so a configured backend is probed directly.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingProber struct {
	pinger Pinger
}

func NewPingProber(p Pinger) *PingProber {
	return &PingProber{pinger: p}
}

func (p *PingProber) Probe(ctx context.Context) error {
	return p.pinger.Ping(ctx)
}

// AlwaysOnline is the local-only mode prober: with no remote backend there
// is nothing to reach, so the system never reports offline.
type AlwaysOnline struct{}

func (AlwaysOnline) Probe(context.Context) error { return nil }

// Monitor tracks online/offline state and notifies subscribers on
// transitions only — repeated identical signals never re-fire.
type Monitor struct {
	mu     sync.Mutex
	online bool
	nextID int
	subs   map[int]func(online bool)

	prober       Prober
	probeTimeout time.Duration
	interval     time.Duration
	logger       *slog.Logger
}

func NewMonitor(prober Prober, probeTimeout, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		// Assume online until the first probe says otherwise, matching the
		// device's startup expectation.
		online:       true,
		subs:         make(map[int]func(bool)),
		prober:       prober,
		probeTimeout: probeTimeout,
		interval:     interval,
		logger:       logger,
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe registers a transition callback and returns its unsubscribe
// function. Callbacks run synchronously on the goroutine that detected the
// transition.
func (m *Monitor) Subscribe(cb func(online bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subs[id] = cb

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// CheckNow probes immediately and returns the resulting state. Called by the
// periodic timer, by app-focus style triggers and by the manual sync
// endpoint.
func (m *Monitor) CheckNow(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	err := m.prober.Probe(probeCtx)
	online := err == nil
	m.transition(online)
	return online
}

func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	callbacks := make([]func(bool), 0, len(m.subs))
	for _, cb := range m.subs {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	if online {
		m.logger.Info("network: back online")
	} else {
		m.logger.Info("network: gone offline")
	}

	for _, cb := range callbacks {
		cb(online)
	}
}

// Run re-checks connectivity every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.CheckNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}
