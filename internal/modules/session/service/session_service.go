package service

import (
	"context"
	"fmt"
	"strconv"

	regimedomain "breathtrain/internal/modules/regime/domain"
	regimeout "breathtrain/internal/modules/regime/port/out"
	"breathtrain/internal/modules/session/domain"
	"breathtrain/internal/platform/clock"
	"breathtrain/internal/platform/id"
	"breathtrain/internal/platform/metrics"
)

type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	recorder regimeout.SegmentRecorder
}

func NewSessionService(clock clock.Clock, idGen id.Generator, recorder regimeout.SegmentRecorder) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, recorder: recorder}
}

func (s *SessionService) Start(_ context.Context, regimeID *int64, stage regimedomain.Stage) (domain.ActiveSegment, error) {
	if err := stage.Validate(); err != nil {
		return domain.ActiveSegment{}, err
	}
	return domain.ActiveSegment{
		SchemaVersion: domain.SchemaVersion,
		SegmentID:     s.idGen.New(),
		RegimeID:      regimeID,
		Stage:         stage,
		StartedAt:     s.clock.Now(),
	}, nil
}

func (s *SessionService) End(ctx context.Context, active domain.ActiveSegment, avgCoherence float64) (regimedomain.Segment, error) {
	segment := regimedomain.Segment{
		UID:              active.SegmentID,
		RegimeID:         active.RegimeID,
		SessionStartTime: active.StartedAt,
		EndDateTime:      s.clock.Now(),
		AvgCoherence:     avgCoherence,
		Stage:            active.Stage,
	}
	storeID, err := s.recorder.RecordSegment(ctx, segment)
	if err != nil {
		return regimedomain.Segment{}, fmt.Errorf("record segment %s: %w", active.SegmentID, err)
	}
	segment.ID = storeID
	metrics.SegmentsRecorded.WithLabelValues(strconv.Itoa(int(active.Stage))).Inc()
	return segment, nil
}
