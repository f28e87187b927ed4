package dto

type RegimeStatsOutput struct {
	ID               int64
	DurationMs       int64
	BreathsPerMinute float64
	HoldPos          string
	Randomize        bool
	IsBestCnt        int
	Count            int
	Mean             float64
	Low90CI          float64
	High90CI         float64
	Best             bool
}
