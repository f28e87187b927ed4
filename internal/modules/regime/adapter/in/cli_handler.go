package in

import (
	"context"

	"breathtrain/internal/modules/regime/dto"
	regimein "breathtrain/internal/modules/regime/port/in"
)

type CLIHandler struct {
	usecase regimein.Usecase
}

func NewCLIHandler(usecase regimein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Stats(ctx context.Context) ([]dto.RegimeStatsOutput, error) {
	return h.usecase.ListStats(ctx)
}
