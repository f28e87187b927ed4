package usecase

import (
	"context"
	"fmt"
	"math"

	"breathtrain/internal/modules/regime/dto"
	regimein "breathtrain/internal/modules/regime/port/in"
	regimeout "breathtrain/internal/modules/regime/port/out"
	apperrors "breathtrain/internal/platform/errors"
)

type Interactor struct {
	lister regimeout.StatsLister
}

func NewInteractor(lister regimeout.StatsLister) regimein.Usecase {
	return &Interactor{lister: lister}
}

// ListStats reports every known regime in id order. Best marks the highest
// mean coherence; ties go to the lowest id.
func (i *Interactor) ListStats(ctx context.Context) ([]dto.RegimeStatsOutput, error) {
	regimes, stats, err := i.lister.ListRegimeStats(ctx)
	if err != nil {
		return nil, err
	}
	if len(regimes) != len(stats) {
		return nil, fmt.Errorf("%w: %d regimes but %d stats", apperrors.ErrDataIntegrity, len(regimes), len(stats))
	}
	out := make([]dto.RegimeStatsOutput, 0, len(regimes))
	best := -1
	for idx, r := range regimes {
		st := stats[idx]
		out = append(out, dto.RegimeStatsOutput{
			ID:               r.ID,
			DurationMs:       r.DurationMs,
			BreathsPerMinute: r.BreathsPerMinute,
			HoldPos:          string(r.HoldPos),
			Randomize:        r.Randomize,
			IsBestCnt:        r.IsBestCnt,
			Count:            st.Count,
			Mean:             st.Mean,
			Low90CI:          st.Low90CI,
			High90CI:         st.High90CI,
		})
		if math.IsNaN(st.Mean) {
			continue
		}
		if best < 0 || st.Mean > out[best].Mean {
			best = idx
		}
	}
	if best >= 0 {
		out[best].Best = true
	}
	return out, nil
}
