package domain

import (
	"time"

	regimedomain "breathtrain/internal/modules/regime/domain"
)

const SchemaVersion = 1

// ActiveSegment is the practice segment currently being paced. RegimeID is nil for rest.
type ActiveSegment struct {
	SchemaVersion int                `json:"schema_version"`
	SegmentID     string             `json:"segment_id"`
	RegimeID      *int64             `json:"regime_id,omitempty"`
	Stage         regimedomain.Stage `json:"stage"`
	StartedAt     time.Time          `json:"started_at"`
}
