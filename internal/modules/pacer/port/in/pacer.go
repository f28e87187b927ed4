package in

import (
	"context"

	"breathtrain/internal/modules/pacer/dto"
)

type Usecase interface {
	Breaths(ctx context.Context, input dto.BreathsInput) (dto.BreathPlan, error)
}
