package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	regimedomain "breathtrain/internal/modules/regime/domain"
	regimeout "breathtrain/internal/modules/regime/port/out"
	"breathtrain/internal/platform/clock"
	apperrors "breathtrain/internal/platform/errors"
	"breathtrain/internal/platform/metrics"
	"breathtrain/internal/platform/random"
	"breathtrain/internal/platform/tx"
)

type SelectorService struct {
	store  regimeout.Store
	tx     tx.Manager
	clock  clock.Clock
	loc    *time.Location
	rng    random.Source
	logger *zap.Logger
}

func NewSelectorService(store regimeout.Store, txm tx.Manager, clk clock.Clock, loc *time.Location, rng random.Source, logger *zap.Logger) *SelectorService {
	if txm == nil {
		txm = tx.NoopManager{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SelectorService{store: store, tx: txm, clock: clk, loc: loc, rng: rng, logger: logger}
}

// Today returns the local date key assignments are filed under.
func (s *SelectorService) Today() string {
	return clock.DateKey(s.clock.Now(), s.loc)
}

// GenerateForDay decides today's six regimes and files them as the day's assignment.
// A completed stage yields an empty list and writes nothing. When today's assignment
// already exists it is returned unchanged, so a retry after a partial failure is safe.
func (s *SelectorService) GenerateForDay(ctx context.Context, condition regimedomain.Condition, stage regimedomain.Stage) ([]regimedomain.Regime, error) {
	if err := condition.Validate(); err != nil {
		return nil, err
	}
	if stage != regimedomain.StageFixed && stage != regimedomain.StageAdaptive {
		return nil, fmt.Errorf("%w: regimes are generated for stage 2 or 3, got %d", apperrors.ErrInvalidArgument, int(stage))
	}
	complete, err := s.store.IsStageComplete(ctx, stage)
	if err != nil {
		return nil, err
	}
	if complete {
		s.logger.Info("stage already complete", zap.String("condition", string(condition)), zap.Int("stage", int(stage)))
		return []regimedomain.Regime{}, nil
	}

	date := s.Today()
	var out []regimedomain.Regime
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		existing, err := s.store.GetDailyAssignment(ctx, date, stage)
		if err != nil {
			return err
		}
		switch len(existing) {
		case 0:
		case regimedomain.RegimesPerDay:
			s.logger.Info("assignment already filed", zap.String("date", date), zap.Int("stage", int(stage)))
			out = existing
			return nil
		default:
			return fmt.Errorf("%w: assignment for %s has %d regimes", apperrors.ErrDataIntegrity, date, len(existing))
		}

		regimes, err := s.choose(ctx, condition, stage)
		if err != nil {
			return err
		}
		if len(regimes) != regimedomain.RegimesPerDay {
			return fmt.Errorf("%w: selection produced %d regimes", apperrors.ErrDataIntegrity, len(regimes))
		}
		if err := s.resolveIDs(ctx, regimes); err != nil {
			return err
		}
		if err := s.store.SaveDailyAssignment(ctx, regimes, date, stage); err != nil {
			return err
		}
		out = regimes
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AssignmentsGenerated.WithLabelValues(string(condition), strconv.Itoa(int(stage))).Inc()
	s.logger.Info("daily regimes ready",
		zap.String("date", date),
		zap.String("condition", string(condition)),
		zap.Int("stage", int(stage)),
		zap.Int64s("regime_ids", regimeIDs(out)),
	)
	return out, nil
}

func (s *SelectorService) choose(ctx context.Context, condition regimedomain.Condition, stage regimedomain.Stage) ([]regimedomain.Regime, error) {
	if stage == regimedomain.StageFixed {
		regimes := regimedomain.StageTwoRegimes(condition)
		random.Shuffle(s.rng, regimes)
		return regimes, nil
	}
	if condition == regimedomain.ConditionB {
		return s.leastCoherent(ctx)
	}
	return s.adaptive(ctx, condition)
}

// leastCoherent repeats the historically least coherent pace six times.
func (s *SelectorService) leastCoherent(ctx context.Context) ([]regimedomain.Regime, error) {
	id, err := s.store.GetMinCoherencePacedRegimeID(ctx)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrNoViableRegimes, err)
	}
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRegimeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]regimedomain.Regime, regimedomain.RegimesPerDay)
	for i := range out {
		out[i] = r
	}
	s.logger.Debug("least coherent regime selected", zap.Int64("regime_id", id))
	return out, nil
}

// adaptive hill-climbs on mean coherence, keeping every regime whose 90% interval
// still reaches the best mean in play.
func (s *SelectorService) adaptive(ctx context.Context, condition regimedomain.Condition) ([]regimedomain.Regime, error) {
	ids, err := s.store.GetAllRegimeIDs(ctx, regimedomain.StageAdaptive)
	if err != nil {
		return nil, err
	}
	stats := make([]regimedomain.RegimeStats, 0, len(ids))
	for _, id := range ids {
		st, err := s.store.GetRegimeStats(ctx, id)
		if err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	bestIdx := -1
	for i, st := range stats {
		if math.IsNaN(st.Mean) {
			continue
		}
		if bestIdx < 0 || st.Mean > stats[bestIdx].Mean {
			bestIdx = i
		}
	}

	var best *regimedomain.Regime
	bestMean := math.NaN()
	if bestIdx >= 0 {
		r, err := s.store.GetRegimeByID(ctx, stats[bestIdx].ID)
		if err != nil {
			return nil, err
		}
		best = &r
		bestMean = stats[bestIdx].Mean
	}

	candidates := make([]regimedomain.Regime, 0)
	for i, st := range stats {
		if i == bestIdx {
			continue
		}
		if !st.Insufficient() && !st.Contains(bestMean) {
			continue
		}
		r, err := s.store.GetRegimeByID(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, r)
	}
	s.logger.Debug("adaptive search",
		zap.Int("regimes", len(stats)),
		zap.Float64("best_mean", bestMean),
		zap.Int64s("candidate_ids", regimeIDs(candidates)),
	)
	return s.PickRegimes(ctx, best, candidates, condition)
}

// PickRegimes turns the best regime and its statistically indistinguishable
// candidates into six regimes. With nothing to compare against it explores two new
// paces around the best; with few candidates the best fills the remaining slots as a
// contiguous block.
func (s *SelectorService) PickRegimes(ctx context.Context, best *regimedomain.Regime, candidates []regimedomain.Regime, condition regimedomain.Condition) ([]regimedomain.Regime, error) {
	if condition != regimedomain.ConditionA {
		return nil, fmt.Errorf("%w: adaptive picking only applies to condition A, got %q", apperrors.ErrInvalidArgument, string(condition))
	}
	candidates = append([]regimedomain.Regime(nil), candidates...)
	if best == nil {
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no best regime and no candidates", apperrors.ErrNoViableRegimes)
		}
		// no regime has a mean yet; the lowest id stands in as best
		promoted := candidates[0]
		best = &promoted
		candidates = candidates[1:]
	}

	n := len(candidates)
	switch {
	case n == 0:
		metrics.PickBranch.WithLabelValues("explore").Inc()
		return s.explore(ctx, *best)
	case n < regimedomain.RegimesPerDay-1:
		metrics.PickBranch.WithLabelValues("pad").Inc()
		random.Shuffle(s.rng, candidates)
		block := make([]regimedomain.Regime, regimedomain.RegimesPerDay-n)
		for i := range block {
			block[i] = *best
		}
		if s.rng.IntN(2) == 0 {
			return append(block, candidates...), nil
		}
		return append(candidates, block...), nil
	case n == regimedomain.RegimesPerDay-1:
		metrics.PickBranch.WithLabelValues("shuffle").Inc()
		out := append([]regimedomain.Regime{*best}, candidates...)
		random.Shuffle(s.rng, out)
		return out, nil
	default:
		metrics.PickBranch.WithLabelValues("sample").Inc()
		pool := append([]regimedomain.Regime{*best}, candidates...)
		return random.Sample(s.rng, pool, regimedomain.RegimesPerDay), nil
	}
}

// explore creates the paces one step either side of best. The step halves every
// time the same regime wins again.
func (s *SelectorService) explore(ctx context.Context, best regimedomain.Regime) ([]regimedomain.Regime, error) {
	step := 1 / math.Pow(2, float64(best.IsBestCnt+1))
	low := best
	low.ID = 0
	low.IsBestCnt = 0
	low.BreathsPerMinute = math.Max(regimedomain.MinBreathsPerMinute, best.BreathsPerMinute-step)
	high := low
	high.BreathsPerMinute = math.Min(regimedomain.MaxBreathsPerMinute, best.BreathsPerMinute+step)

	best.IsBestCnt++
	if err := s.store.SetRegimeBestCount(ctx, best.ID, best.IsBestCnt); err != nil {
		return nil, err
	}
	var err error
	if low.ID, err = s.store.GetOrCreateRegimeID(ctx, low); err != nil {
		return nil, err
	}
	if high.ID, err = s.store.GetOrCreateRegimeID(ctx, high); err != nil {
		return nil, err
	}
	// A clamped step lands back on best; keep its updated count.
	if low.ID == best.ID {
		low = best
	}
	if high.ID == best.ID {
		high = best
	}
	s.logger.Info("exploring around best regime",
		zap.Int64("best_id", best.ID),
		zap.Int("is_best_cnt", best.IsBestCnt),
		zap.Float64("step_bpm", step),
		zap.Int64("low_id", low.ID),
		zap.Int64("high_id", high.ID),
	)
	out := []regimedomain.Regime{low, best, high, low, best, high}
	random.Shuffle(s.rng, out)
	return out, nil
}

func (s *SelectorService) resolveIDs(ctx context.Context, regimes []regimedomain.Regime) error {
	for i := range regimes {
		if regimes[i].ID != 0 {
			continue
		}
		id, err := s.store.GetOrCreateRegimeID(ctx, regimes[i])
		if err != nil {
			return err
		}
		regimes[i].ID = id
	}
	return nil
}

func regimeIDs(regimes []regimedomain.Regime) []int64 {
	out := make([]int64, 0, len(regimes))
	for _, r := range regimes {
		out = append(out, r.ID)
	}
	return out
}
