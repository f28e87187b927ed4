package in

import (
	"context"
	"strings"

	"breathtrain/internal/modules/selection/dto"
	selectionin "breathtrain/internal/modules/selection/port/in"
)

type CLIHandler struct {
	usecase selectionin.Usecase
}

func NewCLIHandler(usecase selectionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Generate(ctx context.Context, condition string, stage int) (dto.GenerateOutput, error) {
	return h.usecase.GenerateRegimesForDay(ctx, dto.GenerateInput{
		Condition: strings.ToUpper(strings.TrimSpace(condition)),
		Stage:     stage,
	})
}
