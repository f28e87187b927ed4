package domain

import (
	"fmt"
	"math"
	"time"

	apperrors "breathtrain/internal/platform/errors"
)

const (
	MinBreathsPerMinute = 1.0
	MaxBreathsPerMinute = 60.0
	MinDurationMs       = 10000
	RegimesPerDay       = 6
)

type HoldPos string

const (
	HoldNone       HoldPos = ""
	HoldPostInhale HoldPos = "postInhale"
	HoldPostExhale HoldPos = "postExhale"
)

func (h HoldPos) Validate() error {
	switch h {
	case HoldNone, HoldPostInhale, HoldPostExhale:
		return nil
	default:
		return fmt.Errorf("%w: unsupported hold position %q", apperrors.ErrValidation, string(h))
	}
}

type Condition string

const (
	ConditionA Condition = "A"
	ConditionB Condition = "B"
)

func (c Condition) Validate() error {
	switch c {
	case ConditionA, ConditionB:
		return nil
	default:
		return fmt.Errorf("%w: unknown condition %q", apperrors.ErrInvalidArgument, string(c))
	}
}

type Stage int

const (
	StageSetup    Stage = 1
	StageFixed    Stage = 2
	StageAdaptive Stage = 3
)

func (s Stage) Validate() error {
	if s < StageSetup || s > StageAdaptive {
		return fmt.Errorf("%w: unknown stage %d", apperrors.ErrInvalidArgument, int(s))
	}
	return nil
}

// Regime is a prescribed breathing pattern. ID is zero until the store assigns one.
type Regime struct {
	ID               int64   `json:"id,omitempty"`
	DurationMs       int64   `json:"duration_ms"`
	BreathsPerMinute float64 `json:"breaths_per_minute"`
	HoldPos          HoldPos `json:"hold_pos,omitempty"`
	Randomize        bool    `json:"randomize"`
	IsBestCnt        int     `json:"is_best_cnt"`
}

// Key is the value tuple that identifies a regime independent of its id.
type Key struct {
	DurationMs       int64
	BreathsPerMinute float64
	HoldPos          HoldPos
	Randomize        bool
}

func (r Regime) Key() Key {
	return Key{DurationMs: r.DurationMs, BreathsPerMinute: r.BreathsPerMinute, HoldPos: r.HoldPos, Randomize: r.Randomize}
}

func (r Regime) MsPerBreath() float64 {
	return 60000 / r.BreathsPerMinute
}

func (r Regime) Validate() error {
	if math.IsNaN(r.BreathsPerMinute) || math.IsInf(r.BreathsPerMinute, 0) {
		return fmt.Errorf("%w: breaths per minute must be finite, got %g", apperrors.ErrValidation, r.BreathsPerMinute)
	}
	if r.BreathsPerMinute < MinBreathsPerMinute || r.BreathsPerMinute > MaxBreathsPerMinute {
		return fmt.Errorf("%w: breaths per minute must be between %g and %g, got %g", apperrors.ErrValidation, MinBreathsPerMinute, MaxBreathsPerMinute, r.BreathsPerMinute)
	}
	if r.DurationMs < MinDurationMs {
		return fmt.Errorf("%w: duration must be at least %d ms, got %d", apperrors.ErrValidation, MinDurationMs, r.DurationMs)
	}
	if float64(r.DurationMs) < r.MsPerBreath() {
		return fmt.Errorf("%w: duration %d ms is shorter than one breath (%g ms at %g bpm)", apperrors.ErrValidation, r.DurationMs, r.MsPerBreath(), r.BreathsPerMinute)
	}
	return r.HoldPos.Validate()
}

func (r Regime) String() string {
	hold := string(r.HoldPos)
	if hold == "" {
		hold = "none"
	}
	return fmt.Sprintf("regime(id=%d bpm=%.4g duration=%dms hold=%s randomize=%t)", r.ID, r.BreathsPerMinute, r.DurationMs, hold, r.Randomize)
}

// Segment is one completed practice instance. RegimeID is nil for rest segments.
type Segment struct {
	ID               int64
	UID              string
	RegimeID         *int64
	SessionStartTime time.Time
	EndDateTime      time.Time
	AvgCoherence     float64
	Stage            Stage
}

func (s Segment) Validate() error {
	if err := s.Stage.Validate(); err != nil {
		return err
	}
	if s.EndDateTime.Before(s.SessionStartTime) {
		return fmt.Errorf("%w: segment ends before it starts", apperrors.ErrValidation)
	}
	return nil
}
