package usecase

import (
	"context"

	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/modules/selection/dto"
	selectionin "breathtrain/internal/modules/selection/port/in"
	"breathtrain/internal/modules/selection/service"
)

type Interactor struct {
	svc *service.SelectorService
}

func NewInteractor(svc *service.SelectorService) selectionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GenerateRegimesForDay(ctx context.Context, input dto.GenerateInput) (dto.GenerateOutput, error) {
	regimes, err := i.svc.GenerateForDay(ctx, regimedomain.Condition(input.Condition), regimedomain.Stage(input.Stage))
	if err != nil {
		return dto.GenerateOutput{}, err
	}
	return dto.GenerateOutput{Date: i.svc.Today(), Regimes: regimes}, nil
}
