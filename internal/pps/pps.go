// Package pps watches the pulse-per-second line many GPS modules expose.
// The receiver raises the line at the top of each UTC second; counting
// pulses and measuring their spacing is a cheap health check for the
// receiver and its wiring.
package pps

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Config struct {
	// Chip is the GPIO character device name, e.g. gpiochip0.
	Chip string

	// Line is the line offset the PPS signal is wired to.
	Line int
}

type Snapshot struct {
	Pulses       uint64  `json:"pulses"`
	LastPulseUTC string  `json:"last_pulse_utc,omitempty"`
	PeriodMs     float64 `json:"period_ms,omitempty"`
	LastError    string  `json:"last_error,omitempty"`
}

// Monitor counts rising edges on a GPIO line. Edge callbacks arrive on the
// kernel event goroutine; everything shared sits behind the mutex.
type Monitor struct {
	cfg Config
	log *zap.Logger

	mu         sync.Mutex
	pulses     uint64
	lastWall   time.Time
	lastMono   time.Duration
	haveMono   bool
	lastPeriod time.Duration
	lastError  string

	closer io.Closer
}

func New(cfg Config, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Chip == "" {
		cfg.Chip = "gpiochip0"
	}
	return &Monitor{cfg: cfg, log: logger}
}

// Start requests the line and begins counting edges.
func (m *Monitor) Start() error {
	if err := m.start(); err != nil {
		m.mu.Lock()
		m.lastError = err.Error()
		m.mu.Unlock()
		return err
	}
	m.log.Info("pps monitor started",
		zap.String("chip", m.cfg.Chip),
		zap.Int("line", m.cfg.Line))
	return nil
}

// handleEdge records one rising edge. mono is the kernel's monotonic event
// timestamp; period math uses it so wall-clock steps cannot produce bogus
// intervals.
func (m *Monitor) handleEdge(wall time.Time, mono time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pulses++
	if m.haveMono {
		m.lastPeriod = mono - m.lastMono
	}
	m.lastWall = wall
	m.lastMono = mono
	m.haveMono = true
}

func (m *Monitor) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Pulses:    m.pulses,
		LastError: m.lastError,
	}
	if !m.lastWall.IsZero() {
		snap.LastPulseUTC = m.lastWall.UTC().Format(time.RFC3339Nano)
	}
	if m.lastPeriod > 0 {
		snap.PeriodMs = float64(m.lastPeriod) / float64(time.Millisecond)
	}
	return snap
}

func (m *Monitor) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	closer := m.closer
	m.closer = nil
	m.mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
}
