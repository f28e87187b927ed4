package domain_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/modules/session/domain"
)

func regimesWithIDs(ids ...int64) []regimedomain.Regime {
	out := make([]regimedomain.Regime, 0, len(ids))
	for _, id := range ids {
		out = append(out, regimedomain.Regime{ID: id, DurationMs: 300000, BreathsPerMinute: 6})
	}
	return out
}

func ids(regimes []regimedomain.Regime) []int64 {
	out := make([]int64, 0, len(regimes))
	for _, r := range regimes {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterCompletedRegimes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		assigned []int64
		done     []int64
		want     []int64
	}{
		{name: "nothing done", assigned: []int64{1, 2, 3, 4, 5, 6}, done: nil, want: []int64{1, 2, 3, 4, 5, 6}},
		{name: "repeated regime partly done", assigned: []int64{1, 1, 1, 2, 3}, done: []int64{1, 1, 1}, want: []int64{2, 3}},
		{name: "keeps assigned minus done", assigned: []int64{1, 1, 1, 1, 2, 3}, done: []int64{1, 1, 1}, want: []int64{1, 2, 3}},
		{name: "all done out of order", assigned: []int64{2, 3, 2, 4, 3, 4}, done: []int64{4, 4, 3, 2, 3, 2}, want: []int64{}},
		{name: "earliest slots drop first", assigned: []int64{5, 7, 5, 8}, done: []int64{5}, want: []int64{7, 5, 8}},
		{name: "done ids outside assignment ignored", assigned: []int64{1, 2}, done: []int64{9, 9, 2}, want: []int64{1}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ids(domain.FilterCompletedRegimes(regimesWithIDs(tc.assigned...), tc.done))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterRegimesByAvailableSessionTime(t *testing.T) {
	t.Parallel()
	mixed := []regimedomain.Regime{
		{ID: 1, DurationMs: 300000},
		{ID: 2, DurationMs: 300000},
		{ID: 3, DurationMs: 400000},
		{ID: 4, DurationMs: 100000},
	}
	cases := []struct {
		name      string
		available int64
		want      []int64
	}{
		{name: "full budget", available: 15 * 60000, want: []int64{1, 2}},
		{name: "stops at first overflow", available: 700000, want: []int64{1, 2}},
		{name: "exact fit", available: 1100000, want: []int64{1, 2, 3, 4}},
		{name: "nothing fits", available: 299999, want: []int64{}},
		{name: "negative budget", available: -1, want: []int64{}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := domain.FilterRegimesByAvailableSessionTime(mixed, tc.available)
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("filter mismatch (-want +got):\n%s", diff)
			}
			var total int64
			for _, r := range got {
				total += r.DurationMs
			}
			if total > tc.available && len(got) > 0 {
				t.Fatalf("total %d exceeds budget %d", total, tc.available)
			}
		})
	}
}

func TestAvailableSessionMs(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("test", 2*3600)
	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, loc)
	if got := domain.AvailableSessionMs(morning, loc, 15*time.Minute); got != 900000 {
		t.Fatalf("expected 15 minute cap, got %d", got)
	}
	late := time.Date(2026, 3, 2, 23, 52, 30, 0, loc)
	if got := domain.AvailableSessionMs(late, loc, 15*time.Minute); got != 450000 {
		t.Fatalf("expected 7.5 minutes until midnight, got %d", got)
	}
	// 21:55 UTC is 23:55 in loc
	utc := time.Date(2026, 3, 2, 21, 55, 0, 0, time.UTC)
	if got := domain.AvailableSessionMs(utc, loc, 15*time.Minute); got != 5*60000 {
		t.Fatalf("expected 5 minutes until local midnight, got %d", got)
	}
}
