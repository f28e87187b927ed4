package domain

import (
	"math"

	regime "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/platform/random"
)

type BreathType string

const (
	Inhale BreathType = "inhale"
	Hold   BreathType = "hold"
	Exhale BreathType = "exhale"
)

// Randomized breaths vary by up to JitterMs per full breath in JitterStepMs increments.
const (
	JitterMs     = 2000
	JitterStepMs = 100
)

type BreathPhase struct {
	DurationMs float64    `json:"duration_ms"`
	BreathType BreathType `json:"breath_type"`
}

// RegimeToBreaths expands a regime into its ordered phases. Breath counts round up,
// so the total can exceed the requested duration; that drift is left as is.
func RegimeToBreaths(r regime.Regime, src random.Source) ([]BreathPhase, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	segmentsPerBreath := 2
	if r.HoldPos != regime.HoldNone {
		segmentsPerBreath = 3
	}
	msPerBreath := r.MsPerBreath()
	base := msPerBreath / float64(segmentsPerBreath)
	totalBreaths := int(math.Ceil(float64(r.DurationMs) / msPerBreath))

	step := float64(JitterStepMs) / float64(segmentsPerBreath)
	halfSteps := JitterMs / JitterStepMs
	phaseDur := func() float64 {
		if !r.Randomize {
			return base
		}
		k := src.IntN(2*halfSteps+1) - halfSteps
		return base + float64(k)*step
	}

	out := make([]BreathPhase, 0, totalBreaths*segmentsPerBreath)
	for i := 0; i < totalBreaths; i++ {
		out = append(out, BreathPhase{DurationMs: phaseDur(), BreathType: Inhale})
		if r.HoldPos == regime.HoldPostInhale {
			out = append(out, BreathPhase{DurationMs: phaseDur(), BreathType: Hold})
		}
		out = append(out, BreathPhase{DurationMs: phaseDur(), BreathType: Exhale})
		if r.HoldPos == regime.HoldPostExhale {
			out = append(out, BreathPhase{DurationMs: phaseDur(), BreathType: Hold})
		}
	}
	return out, nil
}

// TotalDurationMs sums phase durations.
func TotalDurationMs(phases []BreathPhase) float64 {
	total := 0.0
	for _, p := range phases {
		total += p.DurationMs
	}
	return total
}
