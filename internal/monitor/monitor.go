package monitor

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/nerrad567/riglab-core/internal/backend"
)

// Defaults applied by DefaultConfig.
const (
	defaultCheckInterval = 100 * time.Millisecond
	defaultReadTimeout   = 50 * time.Millisecond
	defaultBufferCap     = 64 * 1024
	defaultHistorySize   = 256
)

// Action is invoked when a condition matches. It runs on its own
// goroutine so a slow handler cannot stall the check cycle.
type Action func(ev MatchEvent) error

// MatchEvent records one condition firing.
type MatchEvent struct {
	Condition string
	Text      string
	At        time.Time
}

// ConditionStatus is a snapshot of one registered condition.
type ConditionStatus struct {
	Name    string
	Pattern string
	Enabled bool
}

// Config tunes the monitor's timing and capacity limits.
type Config struct {
	// CheckInterval is the period between buffer scans.
	CheckInterval time.Duration

	// ReadTimeout bounds each ReadStream call so the reader loop stays
	// responsive to cancellation.
	ReadTimeout time.Duration

	// BufferCap caps the rolling buffer; oldest bytes are dropped first.
	BufferCap int

	// HistorySize caps the retained match event history.
	HistorySize int
}

// DefaultConfig returns the standard monitor tuning.
func DefaultConfig() Config {
	return Config{
		CheckInterval: defaultCheckInterval,
		ReadTimeout:   defaultReadTimeout,
		BufferCap:     defaultBufferCap,
		HistorySize:   defaultHistorySize,
	}
}

func (c *Config) applyDefaults() {
	if c.CheckInterval <= 0 {
		c.CheckInterval = defaultCheckInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.BufferCap <= 0 {
		c.BufferCap = defaultBufferCap
	}
	if c.HistorySize <= 0 {
		c.HistorySize = defaultHistorySize
	}
}

// Logger is the minimal logging interface the monitor writes to.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type condition struct {
	name    string
	pattern string
	re      *regexp.Regexp
	enabled bool
	action  Action
}

// Monitor accumulates stream output into a rolling buffer and scans it
// for registered conditions on a fixed interval.
//
// Thread Safety: buffer, conditions, and history share one mutex; the
// reader and checker goroutines and all exported methods take it.
// Actions run outside the lock.
type Monitor struct {
	stream backend.Stream
	cfg    Config
	logger Logger

	// OnIOResult, when set before Start, receives the outcome of every
	// stream read so callers can feed device health tracking.
	OnIOResult func(err error)

	mu         sync.Mutex
	buf        []byte
	conditions []*condition
	history    []MatchEvent

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	dispatch func(c *condition, ev MatchEvent)
}

// New creates a monitor over the given stream. The stream is opened by
// Start, not here.
func New(stream backend.Stream, cfg Config) *Monitor {
	cfg.applyDefaults()
	m := &Monitor{
		stream: stream,
		cfg:    cfg,
		logger: noopLogger{},
	}
	m.dispatch = m.runAction
	return m
}

// SetLogger installs a logger. Passing nil restores the no-op logger.
func (m *Monitor) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// Add registers a condition. Re-adding an existing name replaces the
// pattern, action, and enabled flag while keeping the condition's
// position in the evaluation order.
func (m *Monitor) Add(name, pattern string, action Action) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	c := &condition{name: name, pattern: pattern, re: re, enabled: true, action: action}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.conditions {
		if existing.name == name {
			m.conditions[i] = c
			return nil
		}
	}
	m.conditions = append(m.conditions, c)
	return nil
}

// Remove deletes a condition by name.
func (m *Monitor) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.conditions {
		if c.name == name {
			m.conditions = append(m.conditions[:i], m.conditions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrConditionNotFound, name)
}

// Enable turns a condition on.
func (m *Monitor) Enable(name string) error { return m.setEnabled(name, true) }

// Disable turns a condition off without removing it.
func (m *Monitor) Disable(name string) error { return m.setEnabled(name, false) }

func (m *Monitor) setEnabled(name string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conditions {
		if c.name == name {
			c.enabled = enabled
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrConditionNotFound, name)
}

// Conditions returns snapshots in evaluation order.
func (m *Monitor) Conditions() []ConditionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ConditionStatus, len(m.conditions))
	for i, c := range m.conditions {
		out[i] = ConditionStatus{Name: c.name, Pattern: c.pattern, Enabled: c.enabled}
	}
	return out
}

// Start opens the stream and launches the reader and checker loops.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if m.running {
		return nil
	}
	if err := m.stream.OpenStream(ctx); err != nil {
		return fmt.Errorf("monitor: opening stream: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(2)
	go m.readLoop(runCtx)
	go m.checkLoop(runCtx)
	return nil
}

// Stop halts the loops and closes the stream. Calling Stop on a stopped
// monitor is a no-op.
func (m *Monitor) Stop() error {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	if !m.running {
		return nil
	}
	m.cancel()
	m.wg.Wait()
	m.running = false
	if err := m.stream.CloseStream(); err != nil {
		return fmt.Errorf("monitor: closing stream: %w", err)
	}
	return nil
}

// MatchesSince returns retained match events at or after t, oldest first.
func (m *Monitor) MatchesSince(t time.Time) []MatchEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []MatchEvent
	for _, ev := range m.history {
		if !ev.At.Before(t) {
			out = append(out, ev)
		}
	}
	return out
}

// BufferSnapshot returns a copy of the current buffer contents.
func (m *Monitor) BufferSnapshot() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.buf...)
}

func (m *Monitor) readLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		data, err := m.stream.ReadStream(ctx, m.cfg.ReadTimeout)
		if m.OnIOResult != nil {
			m.OnIOResult(err)
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.mu.Lock()
			logger := m.logger
			m.mu.Unlock()
			logger.Warn("stream read failed", "error", err)
			continue
		}
		if len(data) > 0 {
			m.appendData(data)
		}
	}
}

func (m *Monitor) checkLoop(ctx context.Context) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkOnce(time.Now())
		}
	}
}

func (m *Monitor) appendData(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = append(m.buf, data...)
	if over := len(m.buf) - m.cfg.BufferCap; over > 0 {
		m.buf = append(m.buf[:0], m.buf[over:]...)
	}
}

// checkOnce scans the buffer once. Each enabled condition fires on its
// earliest match; the buffer is then trimmed past the furthest match
// end so the same output cannot fire twice.
func (m *Monitor) checkOnce(now time.Time) {
	m.mu.Lock()

	type firing struct {
		cond *condition
		ev   MatchEvent
	}
	var fired []firing
	trimEnd := 0
	for _, c := range m.conditions {
		if !c.enabled {
			continue
		}
		loc := c.re.FindIndex(m.buf)
		if loc == nil {
			continue
		}
		ev := MatchEvent{
			Condition: c.name,
			Text:      string(m.buf[loc[0]:loc[1]]),
			At:        now,
		}
		fired = append(fired, firing{cond: c, ev: ev})
		if loc[1] > trimEnd {
			trimEnd = loc[1]
		}
	}
	if trimEnd > 0 {
		m.buf = append(m.buf[:0], m.buf[trimEnd:]...)
	}
	for _, f := range fired {
		m.history = append(m.history, f.ev)
	}
	if over := len(m.history) - m.cfg.HistorySize; over > 0 {
		m.history = append(m.history[:0], m.history[over:]...)
	}
	dispatch := m.dispatch
	logger := m.logger
	m.mu.Unlock()

	for _, f := range fired {
		logger.Info("condition matched", "condition", f.ev.Condition, "text", f.ev.Text)
		go dispatch(f.cond, f.ev)
	}
}

func (m *Monitor) runAction(c *condition, ev MatchEvent) {
	if c.action == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.mu.Lock()
			logger := m.logger
			m.mu.Unlock()
			logger.Error("condition action panicked", "condition", c.name, "panic", r)
		}
	}()
	if err := c.action(ev); err != nil {
		m.mu.Lock()
		logger := m.logger
		m.mu.Unlock()
		logger.Error("condition action failed", "condition", c.name, "error", err)
	}
}
