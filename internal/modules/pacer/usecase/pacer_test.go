package usecase_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap/zaptest"

	"breathtrain/internal/modules/pacer/dto"
	"breathtrain/internal/modules/pacer/usecase"
	apperrors "breathtrain/internal/platform/errors"
	"breathtrain/internal/platform/random"
)

func TestBreathsBuildsPlanSummary(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(random.NewSeeded(1), zaptest.NewLogger(t))
	plan, err := uc.Breaths(context.Background(), dto.BreathsInput{DurationMs: 65000, BreathsPerMinute: 6})
	if err != nil {
		t.Fatalf("breaths: %v", err)
	}
	if plan.Breaths != 7 || len(plan.Phases) != 14 {
		t.Fatalf("expected 7 breaths / 14 phases, got %d / %d", plan.Breaths, len(plan.Phases))
	}
	if plan.TotalDurationMs != 70000 {
		t.Fatalf("rounded-up total should be 70000, got %v", plan.TotalDurationMs)
	}
	if math.Abs(plan.EffectiveBreathsPM-6) > 1e-9 {
		t.Fatalf("unexpected effective bpm %v", plan.EffectiveBreathsPM)
	}
}

func TestBreathsRandomizedDriftIsKept(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(random.NewSeeded(9), nil)
	plan, err := uc.Breaths(context.Background(), dto.BreathsInput{DurationMs: 300000, BreathsPerMinute: 12, Randomize: true})
	if err != nil {
		t.Fatalf("breaths: %v", err)
	}
	if plan.Breaths != 60 {
		t.Fatalf("expected 60 breaths, got %d", plan.Breaths)
	}
	if plan.TotalDurationMs < 60*3000 || plan.TotalDurationMs > 60*7000 {
		t.Fatalf("total %v outside jitter envelope", plan.TotalDurationMs)
	}
}

func TestBreathsRejectsInvalidRegime(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(random.NewSeeded(1), nil)
	if _, err := uc.Breaths(context.Background(), dto.BreathsInput{DurationMs: 1000, BreathsPerMinute: 6}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
