package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	regimedomain "breathtrain/internal/modules/regime/domain"
	regimeout "breathtrain/internal/modules/regime/port/out"
	selectiondto "breathtrain/internal/modules/selection/dto"
	selectionin "breathtrain/internal/modules/selection/port/in"
	"breathtrain/internal/modules/session/domain"
	sessiondto "breathtrain/internal/modules/session/dto"
	sessionin "breathtrain/internal/modules/session/port/in"
	sessionout "breathtrain/internal/modules/session/port/out"
	"breathtrain/internal/modules/session/service"
	"breathtrain/internal/platform/clock"
	apperrors "breathtrain/internal/platform/errors"
	"breathtrain/internal/platform/metrics"
)

type Options struct {
	Location   *time.Location
	MaxSession time.Duration
}

type Interactor struct {
	svc         *service.SessionService
	selection   selectionin.Usecase
	store       regimeout.Store
	activeStore sessionout.ActiveSegmentStore
	clock       clock.Clock
	opts        Options
	logger      *zap.Logger
}

func NewInteractor(svc *service.SessionService, selection selectionin.Usecase, store regimeout.Store, activeStore sessionout.ActiveSegmentStore, clk clock.Clock, opts Options, logger *zap.Logger) sessionin.Usecase {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.MaxSession <= 0 {
		opts.MaxSession = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interactor{svc: svc, selection: selection, store: store, activeStore: activeStore, clock: clk, opts: opts, logger: logger}
}

// GetRegimesForSession returns what is still pending today and fits before the
// session cap or local midnight, whichever comes first.
func (i *Interactor) GetRegimesForSession(ctx context.Context, input sessiondto.SessionInput) (sessiondto.SessionOutput, error) {
	condition, stage := regimedomain.Condition(input.Condition), regimedomain.Stage(input.Stage)
	if err := condition.Validate(); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if err := stage.Validate(); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	now := i.clock.Now()
	date := clock.DateKey(now, i.opts.Location)

	assigned, err := i.store.GetDailyAssignment(ctx, date, stage)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if len(assigned) != 0 && len(assigned) != regimedomain.RegimesPerDay {
		return sessiondto.SessionOutput{}, fmt.Errorf("%w: expected 0 or %d regimes assigned for %s stage %d, found %d",
			apperrors.ErrDataIntegrity, regimedomain.RegimesPerDay, date, input.Stage, len(assigned))
	}

	var pending []regimedomain.Regime
	generated := false
	if len(assigned) == regimedomain.RegimesPerDay {
		from, to := clock.DayBounds(now, i.opts.Location)
		segments, err := i.store.GetSegmentsCompletedBetween(ctx, stage, from, to)
		if err != nil {
			return sessiondto.SessionOutput{}, err
		}
		done := make([]int64, 0, len(segments))
		for _, seg := range segments {
			if seg.RegimeID != nil {
				done = append(done, *seg.RegimeID)
			}
		}
		pending = domain.FilterCompletedRegimes(assigned, done)
	} else {
		out, err := i.selection.GenerateRegimesForDay(ctx, selectiondto.GenerateInput{Condition: input.Condition, Stage: input.Stage})
		if err != nil {
			return sessiondto.SessionOutput{}, err
		}
		pending = out.Regimes
		for idx := range pending {
			if pending[idx].ID != 0 {
				continue
			}
			if pending[idx].ID, err = i.store.GetOrCreateRegimeID(ctx, pending[idx]); err != nil {
				return sessiondto.SessionOutput{}, err
			}
		}
		generated = true
	}

	available := domain.AvailableSessionMs(now, i.opts.Location, i.opts.MaxSession)
	regimes := domain.FilterRegimesByAvailableSessionTime(pending, available)
	metrics.SessionRegimes.Observe(float64(len(regimes)))
	i.logger.Info("session regimes",
		zap.String("date", date),
		zap.String("condition", input.Condition),
		zap.Int("stage", input.Stage),
		zap.Bool("generated", generated),
		zap.Int("pending", len(pending)),
		zap.Int("returned", len(regimes)),
		zap.Int64("available_ms", available),
	)
	return sessiondto.SessionOutput{Date: date, Regimes: regimes, AvailableMs: available, Generated: generated}, nil
}

func (i *Interactor) StartSegment(ctx context.Context, input sessiondto.StartSegmentInput) (sessiondto.StartSegmentOutput, error) {
	if i.activeStore != nil {
		_, err := i.activeStore.LoadActive(ctx)
		if err == nil {
			return sessiondto.StartSegmentOutput{}, apperrors.ErrActiveSegmentExists
		}
		if !errors.Is(err, apperrors.ErrNoActiveSegment) {
			return sessiondto.StartSegmentOutput{}, err
		}
	}
	if input.RegimeID != nil {
		if _, err := i.store.GetRegimeByID(ctx, *input.RegimeID); err != nil {
			return sessiondto.StartSegmentOutput{}, err
		}
	}

	active, err := i.svc.Start(ctx, input.RegimeID, regimedomain.Stage(input.Stage))
	if err != nil {
		return sessiondto.StartSegmentOutput{}, err
	}
	if i.activeStore != nil {
		if err := i.activeStore.SaveActive(ctx, active); err != nil {
			return sessiondto.StartSegmentOutput{}, err
		}
	}
	return sessiondto.StartSegmentOutput{SegmentID: active.SegmentID, RegimeID: active.RegimeID, Stage: active.Stage, StartedAt: active.StartedAt}, nil
}

func (i *Interactor) EndSegment(ctx context.Context, input sessiondto.EndSegmentInput) (sessiondto.EndSegmentOutput, error) {
	if math.IsNaN(input.AvgCoherence) || math.IsInf(input.AvgCoherence, 0) {
		return sessiondto.EndSegmentOutput{}, fmt.Errorf("%w: average coherence must be finite, got %v", apperrors.ErrValidation, input.AvgCoherence)
	}
	if i.activeStore == nil {
		return sessiondto.EndSegmentOutput{}, apperrors.ErrNoActiveSegment
	}
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.EndSegmentOutput{}, err
	}
	if input.SegmentID != "" && input.SegmentID != active.SegmentID {
		return sessiondto.EndSegmentOutput{}, fmt.Errorf("%w: segment id mismatch: active %s, got %s", apperrors.ErrInvalidArgument, active.SegmentID, input.SegmentID)
	}

	segment, err := i.svc.End(ctx, active, input.AvgCoherence)
	if err != nil {
		return sessiondto.EndSegmentOutput{}, err
	}
	if err := i.activeStore.ClearActive(ctx); err != nil {
		return sessiondto.EndSegmentOutput{}, err
	}
	return sessiondto.EndSegmentOutput{
		SegmentID:    segment.UID,
		StoreID:      segment.ID,
		RegimeID:     segment.RegimeID,
		Stage:        segment.Stage,
		StartedAt:    segment.SessionStartTime,
		EndedAt:      segment.EndDateTime,
		AvgCoherence: segment.AvgCoherence,
	}, nil
}

func (i *Interactor) GetActiveSegment(ctx context.Context) (sessiondto.ActiveSegmentOutput, error) {
	if i.activeStore == nil {
		return sessiondto.ActiveSegmentOutput{}, apperrors.ErrNoActiveSegment
	}
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.ActiveSegmentOutput{}, err
	}
	return sessiondto.ActiveSegmentOutput{
		SegmentID: active.SegmentID,
		RegimeID:  active.RegimeID,
		Stage:     active.Stage,
		StartedAt: active.StartedAt,
	}, nil
}
