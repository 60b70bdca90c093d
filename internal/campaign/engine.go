package campaign

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/riglab-core/internal/backend"
	"github.com/nerrad567/riglab-core/internal/monitor"
)

// Oracle supplies the serial-output evidence attempts are scored
// against. The condition monitor satisfies it directly.
type Oracle interface {
	MatchesSince(t time.Time) []monitor.MatchEvent
}

// ProgressFunc receives one call per completed attempt. fraction is
// monotonic non-decreasing and reaches 1.0 at exhaustion.
type ProgressFunc func(done, total int, fraction float64)

// AttemptFunc receives the outcome of every attempt. result is one of
// "success", "overshoot", "normal", or "io_error".
type AttemptFunc func(offset, width, attempt int, result string)

// Success records one attempt whose output matched a success pattern.
type Success struct {
	Offset  int
	Width   int
	Attempt int
	Matched string
	At      time.Time
}

// Run is the result of one campaign, identical in shape whether the
// sweep exhausted, stopped early on success, or was cancelled.
type Run struct {
	ID        string
	Params    Params
	Successes []Success

	Attempts int
	Planned  int
	Elapsed  time.Duration

	Cancelled    bool
	StoppedEarly bool
	IOErrors     int

	StartedAt time.Time
}

// Logger is the minimal logging interface the engine writes to.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Engine drives one fault injector through a parameter sweep.
//
// Thread Safety: an Engine runs one campaign at a time; Run is not safe
// for concurrent use on the same Engine.
type Engine struct {
	injector  backend.FaultInjector
	oracle    Oracle
	logger    Logger
	progress  ProgressFunc
	onAttempt AttemptFunc
}

// New creates an engine over an injector and a scoring oracle.
func New(injector backend.FaultInjector, oracle Oracle) *Engine {
	return &Engine{
		injector: injector,
		oracle:   oracle,
		logger:   noopLogger{},
	}
}

// SetLogger installs a logger. Passing nil restores the no-op logger.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	e.logger = l
}

// SetProgress installs a per-attempt progress callback.
func (e *Engine) SetProgress(fn ProgressFunc) {
	e.progress = fn
}

// SetOnAttempt installs a per-attempt outcome observer.
func (e *Engine) SetOnAttempt(fn AttemptFunc) {
	e.onAttempt = fn
}

func (e *Engine) observe(offset, width, attempt int, result string) {
	if e.onAttempt != nil {
		e.onAttempt(offset, width, attempt, result)
	}
}

// refineState tracks one parameter's adaptive refinement. Each
// refinement divides the step by 10 with a floor of 1; once the step is
// already 1 the parameter is exhausted and further overshoots on it are
// ignored, which bounds the number of refinements.
type refineState struct {
	step      int
	exhausted bool
}

func (s *refineState) refine() {
	if s.step <= 1 {
		s.exhausted = true
		return
	}
	s.step /= 10
	if s.step < 1 {
		s.step = 1
	}
}

// Run executes the sweep. Offset is the outer axis, width the inner.
// Cancellation via ctx returns the partial Run with Cancelled set and a
// nil error; only parameter validation and glitch configuration fail
// the call.
func (e *Engine) Run(ctx context.Context, params Params) (Run, error) {
	if err := params.Validate(); err != nil {
		return Run{}, err
	}
	p := params.withDefaults()

	successRes := make([]*regexp.Regexp, len(p.SuccessPatterns))
	for i, pat := range p.SuccessPatterns {
		successRes[i] = regexp.MustCompile(pat)
	}
	var overshootRe *regexp.Regexp
	if p.OvershootPattern != "" {
		overshootRe = regexp.MustCompile(p.OvershootPattern)
	}

	offState := refineState{step: p.Offset.Step}
	widState := refineState{step: p.Width.Step}

	runID := p.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	run := Run{
		ID:        runID,
		Params:    p,
		Planned:   p.Offset.count(offState.step) * p.Width.count(widState.step) * p.AttemptsPerSetting,
		StartedAt: time.Now(),
	}
	total := run.Planned
	lastFraction := 0.0

	report := func() {
		run.Attempts++
		if e.progress == nil {
			return
		}
		fraction := 1.0
		if total > 0 {
			fraction = float64(run.Attempts) / float64(total)
		}
		if fraction > 1 {
			fraction = 1
		}
		if fraction < lastFraction {
			fraction = lastFraction
		}
		lastFraction = fraction
		e.progress(run.Attempts, total, fraction)
	}

	// The total is recomputed after a refinement changes a step, counting
	// the backtracked point in full. widthRemaining covers the rest of
	// the current row plus the rows below; offsetRemaining covers whole
	// rows because an offset refinement restarts the row at Width.Min.
	widthRemaining := func(offset, width int) int {
		rest := p.Width.countFrom(width, widState.step)
		rest += p.Offset.countFrom(offset+offState.step, offState.step) * p.Width.count(widState.step)
		return run.Attempts + rest*p.AttemptsPerSetting
	}
	offsetRemaining := func(offset int) int {
		rest := p.Offset.countFrom(offset, offState.step) * p.Width.count(widState.step)
		return run.Attempts + rest*p.AttemptsPerSetting
	}

	e.logger.Info("campaign starting",
		"campaign", run.ID,
		"planned", run.Planned,
		"offset", p.Offset, "width", p.Width)

	finish := func() Run {
		run.Elapsed = time.Since(run.StartedAt)
		run.Planned = total
		e.logger.Info("campaign finished",
			"campaign", run.ID,
			"attempts", run.Attempts,
			"successes", len(run.Successes),
			"cancelled", run.Cancelled,
			"stopped_early", run.StoppedEarly,
			"elapsed", formatElapsed(run.Elapsed))
		return run
	}

	offset := p.Offset.Min
	for offset <= p.Offset.Max {
		width := p.Width.Min
		widthChanged := false
		offsetRefined := false

		for width <= p.Width.Max {
			cfg := backend.DefaultGlitchConfig()
			cfg.Offset = offset
			cfg.Width = width
			if err := e.injector.ConfigureGlitch(ctx, cfg); err != nil {
				return finish(), fmt.Errorf("campaign: configuring glitch at offset=%d width=%d: %w",
					offset, width, err)
			}

			widthRefined := false
			for attempt := 1; attempt <= p.AttemptsPerSetting; attempt++ {
				if ctx.Err() != nil {
					run.Cancelled = true
					return finish(), nil
				}

				attemptStart := time.Now()
				if err := e.fireOnce(ctx); err != nil {
					run.IOErrors++
					e.logger.Warn("glitch attempt failed",
						"campaign", run.ID, "offset", offset, "width", width,
						"attempt", attempt, "error", err)
					report()
					e.observe(offset, width, attempt, "io_error")
					continue
				}

				if err := settle(ctx, p.SettleTime); err != nil {
					run.Cancelled = true
					return finish(), nil
				}

				events := e.oracle.MatchesSince(attemptStart)
				matched, overshoot := score(events, successRes, overshootRe)
				report()
				switch {
				case matched != "":
					e.observe(offset, width, attempt, "success")
				case overshoot:
					e.observe(offset, width, attempt, "overshoot")
				default:
					e.observe(offset, width, attempt, "normal")
				}

				if matched != "" {
					s := Success{
						Offset:  offset,
						Width:   width,
						Attempt: attempt,
						Matched: matched,
						At:      time.Now(),
					}
					run.Successes = append(run.Successes, s)
					e.logger.Info("glitch success",
						"campaign", run.ID, "offset", offset, "width", width,
						"attempt", attempt, "matched", matched)
					if p.StopOnSuccess {
						run.StoppedEarly = true
						return finish(), nil
					}
					continue
				}

				if overshoot {
					switch {
					case widthChanged && !widState.exhausted:
						backstep := widState.step
						widState.refine()
						width -= backstep
						if width < p.Width.Min {
							width = p.Width.Min
						}
						widthRefined = true
						total = widthRemaining(offset, width)
					case !offState.exhausted:
						backstep := offState.step
						offState.refine()
						offset -= backstep
						if offset < p.Offset.Min {
							offset = p.Offset.Min
						}
						offsetRefined = true
						total = offsetRemaining(offset)
					default:
						continue
					}
					e.logger.Info("overshoot, refining sweep",
						"campaign", run.ID, "offset", offset, "width", width,
						"offset_step", offState.step, "width_step", widState.step)
					break
				}
			}

			if offsetRefined {
				break
			}
			if widthRefined {
				widthChanged = true
				continue
			}
			width += widState.step
			widthChanged = true
		}

		if offsetRefined {
			continue
		}
		offset += offState.step
	}

	return finish(), nil
}

// fireOnce arms and fires a single pulse.
func (e *Engine) fireOnce(ctx context.Context) error {
	if err := e.injector.Arm(ctx); err != nil {
		return fmt.Errorf("arm: %w", err)
	}
	if err := e.injector.Fire(ctx); err != nil {
		return fmt.Errorf("fire: %w", err)
	}
	return nil
}

// score checks the events for success and overshoot pattern hits.
// matched carries the first success text seen, empty if none.
func score(events []monitor.MatchEvent, successRes []*regexp.Regexp, overshootRe *regexp.Regexp) (matched string, overshoot bool) {
	for _, ev := range events {
		if matched == "" {
			for _, re := range successRes {
				if re.MatchString(ev.Text) {
					matched = ev.Text
					break
				}
			}
		}
		if overshootRe != nil && overshootRe.MatchString(ev.Text) {
			overshoot = true
		}
	}
	return matched, overshoot
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// formatElapsed renders a duration as HHH:MM:SS for status surfaces.
func formatElapsed(d time.Duration) string {
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%03d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
