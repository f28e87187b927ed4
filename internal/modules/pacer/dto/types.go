package dto

import (
	pacerdomain "breathtrain/internal/modules/pacer/domain"
	regimedomain "breathtrain/internal/modules/regime/domain"
)

type BreathsInput struct {
	RegimeID         int64
	DurationMs       int64
	BreathsPerMinute float64
	HoldPos          string
	Randomize        bool
}

type BreathPlan struct {
	Regime             regimedomain.Regime
	Phases             []pacerdomain.BreathPhase
	Breaths            int
	TotalDurationMs    float64
	EffectiveBreathsPM float64
}
