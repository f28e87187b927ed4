package out_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	sessionout "breathtrain/internal/modules/session/adapter/out"
	"breathtrain/internal/modules/session/domain"
	apperrors "breathtrain/internal/platform/errors"
)

func TestFileActiveSegmentStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "active-segment.json")
	store := sessionout.NewFileActiveSegmentStore(path)

	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSegment) {
		t.Fatalf("expected no active segment, got %v", err)
	}

	regimeID := int64(4)
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := store.SaveActive(ctx, domain.ActiveSegment{SegmentID: "seg-1", RegimeID: &regimeID, Stage: 3, StartedAt: started}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadActive(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SchemaVersion != domain.SchemaVersion || got.SegmentID != "seg-1" || got.RegimeID == nil || *got.RegimeID != 4 || !got.StartedAt.Equal(started) {
		t.Fatalf("unexpected segment: %+v", got)
	}

	if err := store.ClearActive(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := store.ClearActive(ctx); err != nil {
		t.Fatalf("clearing twice should be a no-op: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("active file should be gone, stat err=%v", err)
	}
}

func TestFileActiveSegmentStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "active-segment.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := sessionout.NewFileActiveSegmentStore(path).LoadActive(context.Background())
	if err == nil || errors.Is(err, apperrors.ErrNoActiveSegment) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestMemoryActiveSegmentStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := sessionout.NewMemoryActiveSegmentStore()

	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSegment) {
		t.Fatalf("expected no active segment, got %v", err)
	}
	started := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if err := store.SaveActive(ctx, domain.ActiveSegment{SegmentID: "rest-1", Stage: 2, StartedAt: started}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.LoadActive(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.SchemaVersion != domain.SchemaVersion || got.SegmentID != "rest-1" || got.RegimeID != nil {
		t.Fatalf("unexpected segment: %+v", got)
	}
	if err := store.ClearActive(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.LoadActive(ctx); !errors.Is(err, apperrors.ErrNoActiveSegment) {
		t.Fatalf("expected cleared store, got %v", err)
	}
}
