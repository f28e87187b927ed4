package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Registry = prometheus.NewRegistry()

var (
	AssignmentsGenerated = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "breathtrain_assignments_generated_total",
		Help: "Daily assignments generated",
	}, []string{"condition", "stage"})

	PickBranch = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "breathtrain_pick_branch_total",
		Help: "Adaptive selection branch taken by candidate count",
	}, []string{"branch"})

	SessionRegimes = promauto.With(Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "breathtrain_session_regimes",
		Help:    "Regimes returned for a session after completion and time filtering",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
	})

	SegmentsRecorded = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "breathtrain_segments_recorded_total",
		Help: "Practice segments recorded",
	}, []string{"stage"})
)

// WriteTextfile dumps the registry for a node_exporter textfile collector.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
