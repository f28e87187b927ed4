package in

import (
	"context"

	"breathtrain/internal/modules/pacer/dto"
	pacerin "breathtrain/internal/modules/pacer/port/in"
)

type CLIHandler struct {
	usecase pacerin.Usecase
}

func NewCLIHandler(usecase pacerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Breaths(ctx context.Context, durationMs int64, bpm float64, hold string, randomize bool) (dto.BreathPlan, error) {
	return h.usecase.Breaths(ctx, dto.BreathsInput{
		DurationMs:       durationMs,
		BreathsPerMinute: bpm,
		HoldPos:          hold,
		Randomize:        randomize,
	})
}

func (h CLIHandler) Plan(ctx context.Context, input dto.BreathsInput) (dto.BreathPlan, error) {
	return h.usecase.Breaths(ctx, input)
}
