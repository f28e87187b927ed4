package pacer_test

import (
	"testing"

	pacerdomain "breathtrain/internal/modules/pacer/domain"
	"breathtrain/internal/ui/views/pacer"
)

func TestPositionAt(t *testing.T) {
	t.Parallel()
	phases := []pacerdomain.BreathPhase{
		{DurationMs: 4000, BreathType: pacerdomain.Inhale},
		{DurationMs: 6000, BreathType: pacerdomain.Exhale},
		{DurationMs: 4000, BreathType: pacerdomain.Inhale},
		{DurationMs: 6000, BreathType: pacerdomain.Exhale},
	}
	cases := []struct {
		name      string
		elapsedMs float64
		want      pacer.Position
	}{
		{name: "start", elapsedMs: 0, want: pacer.Position{Index: 0, Fraction: 0, Breath: 1}},
		{name: "mid inhale", elapsedMs: 2000, want: pacer.Position{Index: 0, Fraction: 0.5, Breath: 1}},
		{name: "exhale", elapsedMs: 7000, want: pacer.Position{Index: 1, Fraction: 0.5, Breath: 1}},
		{name: "second breath", elapsedMs: 10000, want: pacer.Position{Index: 2, Fraction: 0, Breath: 2}},
		{name: "done", elapsedMs: 20000, want: pacer.Position{Index: 3, Fraction: 1, Breath: 2, Done: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := pacer.PositionAt(phases, tc.elapsedMs); got != tc.want {
				t.Fatalf("PositionAt(%v) = %+v, want %+v", tc.elapsedMs, got, tc.want)
			}
		})
	}
}
