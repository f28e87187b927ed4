package in

import (
	"context"

	"breathtrain/internal/modules/regime/dto"
)

type Usecase interface {
	ListStats(ctx context.Context) ([]dto.RegimeStatsOutput, error)
}
