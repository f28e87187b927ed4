package in

import (
	"context"

	"breathtrain/internal/modules/session/dto"
)

type Usecase interface {
	GetRegimesForSession(ctx context.Context, input dto.SessionInput) (dto.SessionOutput, error)
	StartSegment(ctx context.Context, input dto.StartSegmentInput) (dto.StartSegmentOutput, error)
	EndSegment(ctx context.Context, input dto.EndSegmentInput) (dto.EndSegmentOutput, error)
	GetActiveSegment(ctx context.Context) (dto.ActiveSegmentOutput, error)
}
