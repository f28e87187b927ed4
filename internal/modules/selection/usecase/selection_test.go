package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	regimeout "breathtrain/internal/modules/regime/adapter/out"
	regimedomain "breathtrain/internal/modules/regime/domain"
	"breathtrain/internal/modules/selection/dto"
	"breathtrain/internal/modules/selection/service"
	"breathtrain/internal/modules/selection/usecase"
	"breathtrain/internal/platform/random"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func TestGenerateRegimesForDayAgainstSQLite(t *testing.T) {
	t.Parallel()
	store, err := regimeout.NewSQLiteStore(filepath.Join(t.TempDir(), "bt.db"), map[int]int{2: 24})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer store.Close()

	loc := time.FixedZone("PST", -8*3600)
	clk := fixedClock{t: time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC)} // 22:00 on the 2nd, local
	uc := usecase.NewInteractor(service.NewSelectorService(store, store, clk, loc, random.NewSeeded(12), nil))

	out, err := uc.GenerateRegimesForDay(context.Background(), dto.GenerateInput{Condition: "B", Stage: 2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out.Date != "2026-03-02" {
		t.Fatalf("expected local date 2026-03-02, got %s", out.Date)
	}
	if len(out.Regimes) != 6 {
		t.Fatalf("expected 6 regimes, got %d", len(out.Regimes))
	}
	filed, err := store.GetDailyAssignment(context.Background(), out.Date, regimedomain.StageFixed)
	if err != nil {
		t.Fatalf("load assignment: %v", err)
	}
	for i := range filed {
		if filed[i].ID != out.Regimes[i].ID {
			t.Fatalf("slot %d: filed %d, returned %d", i, filed[i].ID, out.Regimes[i].ID)
		}
		if !filed[i].Randomize {
			t.Fatalf("condition B stage 2 regimes are randomized: %v", filed[i])
		}
	}
}
