package campaign

import (
	"fmt"
	"regexp"
	"time"
)

// defaultSettleTime is the wait after each Fire before the serial output
// is scored, long enough for the target to emit its reaction.
const defaultSettleTime = 50 * time.Millisecond

// Range is an inclusive integer sweep range. Values run Min, Min+Step,
// ... up to and including Max when the step lands on it.
type Range struct {
	Min  int `yaml:"min" json:"min"`
	Max  int `yaml:"max" json:"max"`
	Step int `yaml:"step" json:"step"`
}

// count returns the number of values the range yields with the given
// step.
func (r Range) count(step int) int {
	if r.Max < r.Min || step <= 0 {
		return 0
	}
	return (r.Max-r.Min)/step + 1
}

// countFrom returns the number of values from a given start up to Max.
func (r Range) countFrom(start, step int) int {
	if r.Max < start || step <= 0 {
		return 0
	}
	return (r.Max-start)/step + 1
}

// Params defines one parameter-sweep campaign.
type Params struct {
	// RunID, when set, names the run so callers can wire telemetry
	// before the sweep starts. Empty generates a UUID.
	RunID string `yaml:"run_id" json:"run_id"`

	// Offset is the glitch trigger-to-pulse delay range, outer sweep axis.
	Offset Range `yaml:"offset" json:"offset"`

	// Width is the glitch pulse width range, inner sweep axis.
	Width Range `yaml:"width" json:"width"`

	// AttemptsPerSetting is how many pulses are fired at each
	// (offset, width) point.
	AttemptsPerSetting int `yaml:"attempts_per_setting" json:"attempts_per_setting"`

	// SuccessPatterns are regexes scored against monitor match text; any
	// hit records a Success.
	SuccessPatterns []string `yaml:"success_patterns" json:"success_patterns"`

	// OvershootPattern, when set, marks attempts whose output shows the
	// glitch hit too hard (target crashed or reset) and drives adaptive
	// refinement.
	OvershootPattern string `yaml:"overshoot_pattern" json:"overshoot_pattern"`

	// SettleTime is the post-Fire wait before scoring.
	SettleTime time.Duration `yaml:"settle_time" json:"settle_time"`

	// StopOnSuccess ends the sweep at the first recorded success.
	StopOnSuccess bool `yaml:"stop_on_success" json:"stop_on_success"`
}

// withDefaults returns a copy with zero values filled in.
func (p Params) withDefaults() Params {
	if p.SettleTime <= 0 {
		p.SettleTime = defaultSettleTime
	}
	if p.AttemptsPerSetting <= 0 {
		p.AttemptsPerSetting = 1
	}
	return p
}

// Validate checks ranges and compiles nothing; pattern compilation is
// validated so a bad regex fails before any hardware is touched.
func (p Params) Validate() error {
	for name, r := range map[string]Range{"offset": p.Offset, "width": p.Width} {
		if r.Step <= 0 {
			return fmt.Errorf("%w: %s step must be positive, got %d", ErrInvalidParams, name, r.Step)
		}
		if r.Max < r.Min {
			return fmt.Errorf("%w: %s max %d below min %d", ErrInvalidParams, name, r.Max, r.Min)
		}
		if r.Min < 0 {
			return fmt.Errorf("%w: %s min must not be negative, got %d", ErrInvalidParams, name, r.Min)
		}
	}
	if len(p.SuccessPatterns) == 0 {
		return fmt.Errorf("%w: at least one success pattern is required", ErrInvalidParams)
	}
	for _, pat := range p.SuccessPatterns {
		if _, err := regexp.Compile(pat); err != nil {
			return fmt.Errorf("%w: success pattern %q: %v", ErrInvalidParams, pat, err)
		}
	}
	if p.OvershootPattern != "" {
		if _, err := regexp.Compile(p.OvershootPattern); err != nil {
			return fmt.Errorf("%w: overshoot pattern %q: %v", ErrInvalidParams, p.OvershootPattern, err)
		}
	}
	return nil
}
