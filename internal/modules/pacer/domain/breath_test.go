package domain_test

import (
	"errors"
	"math"
	"testing"

	"breathtrain/internal/modules/pacer/domain"
	regime "breathtrain/internal/modules/regime/domain"
	apperrors "breathtrain/internal/platform/errors"
	"breathtrain/internal/platform/random"
)

type fixedSource int

func (f fixedSource) IntN(n int) int {
	v := int(f)
	if v >= n {
		return n - 1
	}
	return v
}

func TestRegimeToBreathsShape(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		regime  regime.Regime
		breaths int
		order   []domain.BreathType
	}{
		{
			name:    "no hold",
			regime:  regime.Regime{DurationMs: 60000, BreathsPerMinute: 6},
			breaths: 6,
			order:   []domain.BreathType{domain.Inhale, domain.Exhale},
		},
		{
			name:    "post inhale hold rounds up",
			regime:  regime.Regime{DurationMs: 65000, BreathsPerMinute: 6, HoldPos: regime.HoldPostInhale},
			breaths: 7,
			order:   []domain.BreathType{domain.Inhale, domain.Hold, domain.Exhale},
		},
		{
			name:    "post exhale hold",
			regime:  regime.Regime{DurationMs: 300000, BreathsPerMinute: 60.0 / 13, HoldPos: regime.HoldPostExhale, Randomize: true},
			breaths: 24,
			order:   []domain.BreathType{domain.Inhale, domain.Exhale, domain.Hold},
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			phases, err := domain.RegimeToBreaths(tc.regime, random.NewSeeded(3))
			if err != nil {
				t.Fatalf("regime to breaths: %v", err)
			}
			if len(phases) != tc.breaths*len(tc.order) {
				t.Fatalf("expected %d phases, got %d", tc.breaths*len(tc.order), len(phases))
			}
			for i, p := range phases {
				if p.BreathType != tc.order[i%len(tc.order)] {
					t.Fatalf("phase %d: expected %s, got %s", i, tc.order[i%len(tc.order)], p.BreathType)
				}
			}
		})
	}
}

func TestRegimeToBreathsFixedDurations(t *testing.T) {
	t.Parallel()
	phases, err := domain.RegimeToBreaths(regime.Regime{DurationMs: 60000, BreathsPerMinute: 4, HoldPos: regime.HoldPostInhale}, nil)
	if err != nil {
		t.Fatalf("regime to breaths: %v", err)
	}
	for _, p := range phases {
		if p.DurationMs != 5000 {
			t.Fatalf("expected 5000ms phases, got %v", p.DurationMs)
		}
	}
	if domain.TotalDurationMs(phases) != 60000 {
		t.Fatalf("unexpected total %v", domain.TotalDurationMs(phases))
	}
}

func TestRegimeToBreathsRandomizedGrid(t *testing.T) {
	t.Parallel()
	for _, hold := range []regime.HoldPos{regime.HoldNone, regime.HoldPostExhale} {
		r := regime.Regime{DurationMs: 300000, BreathsPerMinute: 12, HoldPos: hold, Randomize: true}
		spb := 2.0
		if hold != regime.HoldNone {
			spb = 3
		}
		base := 5000 / spb
		phases, err := domain.RegimeToBreaths(r, random.NewSeeded(11))
		if err != nil {
			t.Fatalf("regime to breaths: %v", err)
		}
		distinct := map[float64]struct{}{}
		for _, p := range phases {
			off := p.DurationMs - base
			if math.Abs(off) > 2000/spb+1e-9 {
				t.Fatalf("phase %v outside jitter range around %v", p.DurationMs, base)
			}
			steps := off / (100 / spb)
			if math.Abs(steps-math.Round(steps)) > 1e-6 {
				t.Fatalf("phase %v not on the %v ms grid", p.DurationMs, 100/spb)
			}
			distinct[p.DurationMs] = struct{}{}
		}
		if len(distinct) < 2 {
			t.Fatalf("randomized phases should vary")
		}
	}
}

func TestRegimeToBreathsJitterBounds(t *testing.T) {
	t.Parallel()
	r := regime.Regime{DurationMs: 10000, BreathsPerMinute: 6, Randomize: true}
	low, err := domain.RegimeToBreaths(r, fixedSource(0))
	if err != nil {
		t.Fatalf("regime to breaths: %v", err)
	}
	if low[0].DurationMs != 4000 {
		t.Fatalf("expected lowest grid value 4000, got %v", low[0].DurationMs)
	}
	high, err := domain.RegimeToBreaths(r, fixedSource(40))
	if err != nil {
		t.Fatalf("regime to breaths: %v", err)
	}
	if high[0].DurationMs != 6000 {
		t.Fatalf("expected highest grid value 6000, got %v", high[0].DurationMs)
	}
}

func TestRegimeToBreathsValidation(t *testing.T) {
	t.Parallel()
	bad := []regime.Regime{
		{DurationMs: 300000, BreathsPerMinute: 0.9},
		{DurationMs: 300000, BreathsPerMinute: 60.5},
		{DurationMs: 9000, BreathsPerMinute: 6},
		{DurationMs: 50000, BreathsPerMinute: 1},
		{DurationMs: 60000, BreathsPerMinute: math.NaN()},
		{DurationMs: 60000, BreathsPerMinute: math.Inf(1)},
		{DurationMs: 60000, BreathsPerMinute: math.Inf(-1)},
	}
	for _, r := range bad {
		if _, err := domain.RegimeToBreaths(r, nil); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("expected validation error for %v, got %v", r, err)
		}
	}
}
