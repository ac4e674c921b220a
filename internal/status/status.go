// Package status tracks backend availability by probing the queue stats
// endpoint at a fixed interval.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/nightingale/internal/api"
	"github.com/normanking/nightingale/internal/bus"
)

// Prober is the slice of the API client the monitor needs. *api.Client
// satisfies it.
type Prober interface {
	QueueStats(ctx context.Context) (*api.QueueStats, error)
}

// Snapshot is one observation of the backend.
type Snapshot struct {
	Online    bool
	Latency   time.Duration
	Stats     *api.QueueStats
	LastSeen  time.Time
	LastError string
}

// Config holds monitor configuration
type Config struct {
	// Probe timeout per request
	Timeout time.Duration
	// How often to probe
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeout:         2 * time.Second,
		RefreshInterval: 30 * time.Second,
	}
}

// Monitor polls the backend and publishes online/offline transitions.
type Monitor struct {
	cfg    *Config
	prober Prober
	bus    *bus.EventBus
	logger zerolog.Logger

	mu       sync.RWMutex
	snapshot Snapshot
	onUpdate func(Snapshot)

	stopCh  chan struct{}
	running bool
}

// NewMonitor creates a backend status monitor.
func NewMonitor(cfg *Config, prober Prober, eventBus *bus.EventBus, logger zerolog.Logger) *Monitor {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Monitor{
		cfg:    cfg,
		prober: prober,
		bus:    eventBus,
		logger: logger.With().Str("component", "status").Logger(),
		stopCh: make(chan struct{}),
	}
}

// SetOnUpdate sets the callback invoked after every probe.
func (m *Monitor) SetOnUpdate(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// Start begins background probing.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.mu.Unlock()

	// Initial probe
	go m.Probe()

	// Periodic refresh
	go func() {
		ticker := time.NewTicker(m.cfg.RefreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Probe()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop stops background probing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		close(m.stopCh)
		m.running = false
	}
}

// Probe performs one probe and returns the resulting snapshot.
func (m *Monitor) Probe() Snapshot {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
	defer cancel()

	start := time.Now()
	stats, err := m.prober.QueueStats(ctx)
	latency := time.Since(start)

	m.mu.Lock()
	wasOnline := m.snapshot.Online
	if err != nil {
		m.snapshot.Online = false
		m.snapshot.LastError = err.Error()
	} else {
		m.snapshot = Snapshot{
			Online:   true,
			Latency:  latency,
			Stats:    stats,
			LastSeen: time.Now(),
		}
	}
	snap := m.snapshot
	callback := m.onUpdate
	m.mu.Unlock()

	if snap.Online != wasOnline {
		if snap.Online {
			m.logger.Info().Dur("latency", latency).Msg("Backend online")
			m.publish(bus.EventTypeBackendOnline)
		} else {
			m.logger.Warn().Str("error", snap.LastError).Msg("Backend offline")
			m.publish(bus.EventTypeBackendOffline)
		}
	}

	if callback != nil {
		callback(snap)
	}
	return snap
}

// Current returns the latest snapshot.
func (m *Monitor) Current() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

func (m *Monitor) publish(t bus.EventType) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(bus.Event{Type: t, Data: map[string]any{}})
}
