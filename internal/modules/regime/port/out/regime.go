package out

import (
	"context"
	"time"

	"breathtrain/internal/modules/regime/domain"
)

// Store is the regime store the selection and session modules depend on.
type Store interface {
	GetOrCreateRegimeID(ctx context.Context, regime domain.Regime) (int64, error)
	GetRegimeByID(ctx context.Context, id int64) (domain.Regime, error)
	GetAllRegimeIDs(ctx context.Context, stage domain.Stage) ([]int64, error)
	GetRegimeStats(ctx context.Context, id int64) (domain.RegimeStats, error)
	GetMinCoherencePacedRegimeID(ctx context.Context) (int64, error)
	IsStageComplete(ctx context.Context, stage domain.Stage) (bool, error)
	GetSegmentsCompletedBetween(ctx context.Context, stage domain.Stage, from, to time.Time) ([]domain.Segment, error)
	GetDailyAssignment(ctx context.Context, date string, stage domain.Stage) ([]domain.Regime, error)
	SaveDailyAssignment(ctx context.Context, regimes []domain.Regime, date string, stage domain.Stage) error
	SetRegimeBestCount(ctx context.Context, id int64, count int) error
}

// SegmentRecorder persists finished practice segments.
type SegmentRecorder interface {
	RecordSegment(ctx context.Context, segment domain.Segment) (int64, error)
}

// StatsLister reports stats for every known regime.
type StatsLister interface {
	ListRegimeStats(ctx context.Context) ([]domain.Regime, []domain.RegimeStats, error)
}
