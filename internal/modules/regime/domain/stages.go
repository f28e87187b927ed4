package domain

const stageTwoDurationMs = 300000

// breath lengths in seconds, slowest first
var (
	stageTwoBreathSecondsA = []float64{13, 12.4, 11.8, 11.2, 10.6, 10}
	stageTwoBreathSecondsB = []float64{5.5, 5.2, 4.9, 4.6, 4.3, 4}
)

// StageTwoRegimes returns a fresh copy of the fixed stage-2 protocol set for a condition.
// Condition A paces slowly without jitter, condition B paces faster with randomized breaths.
func StageTwoRegimes(c Condition) []Regime {
	seconds := stageTwoBreathSecondsA
	randomize := false
	if c == ConditionB {
		seconds = stageTwoBreathSecondsB
		randomize = true
	}
	out := make([]Regime, 0, len(seconds))
	for _, s := range seconds {
		out = append(out, Regime{
			DurationMs:       stageTwoDurationMs,
			BreathsPerMinute: 60 / s,
			HoldPos:          HoldNone,
			Randomize:        randomize,
		})
	}
	return out
}
