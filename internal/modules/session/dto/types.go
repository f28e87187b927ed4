package dto

import (
	"time"

	regimedomain "breathtrain/internal/modules/regime/domain"
)

type SessionInput struct {
	Condition string
	Stage     int
}

type SessionOutput struct {
	Date        string
	Regimes     []regimedomain.Regime
	AvailableMs int64
	Generated   bool
}

type StartSegmentInput struct {
	RegimeID *int64
	Stage    int
}

type StartSegmentOutput struct {
	SegmentID string
	RegimeID  *int64
	Stage     regimedomain.Stage
	StartedAt time.Time
}

type EndSegmentInput struct {
	SegmentID    string
	AvgCoherence float64
}

type EndSegmentOutput struct {
	SegmentID    string
	StoreID      int64
	RegimeID     *int64
	Stage        regimedomain.Stage
	StartedAt    time.Time
	EndedAt      time.Time
	AvgCoherence float64
}

type ActiveSegmentOutput struct {
	SegmentID string
	RegimeID  *int64
	Stage     regimedomain.Stage
	StartedAt time.Time
}
