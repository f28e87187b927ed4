package usecase

import (
	"context"

	"go.uber.org/zap"

	"breathtrain/internal/modules/pacer/domain"
	"breathtrain/internal/modules/pacer/dto"
	pacerin "breathtrain/internal/modules/pacer/port/in"
	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/platform/random"
)

type Interactor struct {
	rng    random.Source
	logger *zap.Logger
}

func NewInteractor(rng random.Source, logger *zap.Logger) pacerin.Usecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{rng: rng, logger: logger}
}

func (i *Interactor) Breaths(_ context.Context, input dto.BreathsInput) (dto.BreathPlan, error) {
	regime := regimedomain.Regime{
		ID:               input.RegimeID,
		DurationMs:       input.DurationMs,
		BreathsPerMinute: input.BreathsPerMinute,
		HoldPos:          regimedomain.HoldPos(input.HoldPos),
		Randomize:        input.Randomize,
	}
	phases, err := domain.RegimeToBreaths(regime, i.rng)
	if err != nil {
		return dto.BreathPlan{}, err
	}
	plan := dto.BreathPlan{
		Regime:          regime,
		Phases:          phases,
		Breaths:         countBreaths(phases),
		TotalDurationMs: domain.TotalDurationMs(phases),
	}
	if plan.TotalDurationMs > 0 {
		plan.EffectiveBreathsPM = float64(plan.Breaths) / (plan.TotalDurationMs / 60000)
	}
	i.logger.Debug("breath plan generated",
		zap.Int64("regime_id", regime.ID),
		zap.Int("breaths", plan.Breaths),
		zap.Float64("total_ms", plan.TotalDurationMs),
		zap.Float64("effective_bpm", plan.EffectiveBreathsPM),
	)
	return plan, nil
}

func countBreaths(phases []domain.BreathPhase) int {
	n := 0
	for _, p := range phases {
		if p.BreathType == domain.Inhale {
			n++
		}
	}
	return n
}
