package out

import (
	"context"

	"breathtrain/internal/modules/session/domain"
)

type ActiveSegmentStore interface {
	SaveActive(ctx context.Context, segment domain.ActiveSegment) error
	LoadActive(ctx context.Context) (domain.ActiveSegment, error)
	ClearActive(ctx context.Context) error
}
