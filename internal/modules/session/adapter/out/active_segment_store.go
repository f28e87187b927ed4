package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"breathtrain/internal/modules/session/domain"
	sessionout "breathtrain/internal/modules/session/port/out"
	apperrors "breathtrain/internal/platform/errors"
)

type FileActiveSegmentStore struct {
	path string
}

func NewFileActiveSegmentStore(path string) sessionout.ActiveSegmentStore {
	return &FileActiveSegmentStore{path: path}
}

func (s *FileActiveSegmentStore) SaveActive(_ context.Context, segment domain.ActiveSegment) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create active segment dir: %w", err)
	}
	segment.SchemaVersion = domain.SchemaVersion
	payload, err := json.MarshalIndent(segment, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active segment: %w", err)
	}
	if err := os.WriteFile(s.path, payload, 0o644); err != nil {
		return fmt.Errorf("write active segment: %w", err)
	}
	return nil
}

func (s *FileActiveSegmentStore) LoadActive(_ context.Context) (domain.ActiveSegment, error) {
	payload, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ActiveSegment{}, apperrors.ErrNoActiveSegment
		}
		return domain.ActiveSegment{}, fmt.Errorf("read active segment: %w", err)
	}
	active := domain.ActiveSegment{}
	if err := json.Unmarshal(payload, &active); err != nil {
		return domain.ActiveSegment{}, fmt.Errorf("decode active segment: %w", err)
	}
	if active.SegmentID == "" {
		return domain.ActiveSegment{}, apperrors.ErrNoActiveSegment
	}
	return active, nil
}

func (s *FileActiveSegmentStore) ClearActive(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear active segment: %w", err)
	}
	return nil
}
