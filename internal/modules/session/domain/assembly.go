package domain

import (
	"time"

	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/platform/clock"
)

// FilterCompletedRegimes removes one assigned slot per completed id, earliest slot
// first. A regime assigned N times and done M times keeps N-M slots; pending slots
// keep their order.
func FilterCompletedRegimes(assigned []regimedomain.Regime, doneIDs []int64) []regimedomain.Regime {
	done := make(map[int64]int, len(doneIDs))
	for _, id := range doneIDs {
		done[id]++
	}
	out := make([]regimedomain.Regime, 0, len(assigned))
	for _, r := range assigned {
		if done[r.ID] > 0 {
			done[r.ID]--
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterRegimesByAvailableSessionTime keeps the longest prefix whose total duration
// fits in availableMs. It never skips ahead to a shorter regime.
func FilterRegimesByAvailableSessionTime(regimes []regimedomain.Regime, availableMs int64) []regimedomain.Regime {
	out := make([]regimedomain.Regime, 0, len(regimes))
	var total int64
	for _, r := range regimes {
		if total+r.DurationMs > availableMs {
			break
		}
		total += r.DurationMs
		out = append(out, r)
	}
	return out
}

// AvailableSessionMs is the smaller of the time left until local midnight and maxSession.
func AvailableSessionMs(now time.Time, loc *time.Location, maxSession time.Duration) int64 {
	_, midnight := clock.DayBounds(now, loc)
	left := midnight.Sub(now)
	if maxSession < left {
		left = maxSession
	}
	return left.Milliseconds()
}
