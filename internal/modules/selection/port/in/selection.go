package in

import (
	"context"

	"breathtrain/internal/modules/selection/dto"
)

type Usecase interface {
	GenerateRegimesForDay(ctx context.Context, input dto.GenerateInput) (dto.GenerateOutput, error)
}
