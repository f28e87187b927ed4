package out

import (
	"context"
	"sync"

	"breathtrain/internal/modules/session/domain"
	sessionout "breathtrain/internal/modules/session/port/out"
	apperrors "breathtrain/internal/platform/errors"
)

// MemoryActiveSegmentStore keeps the in-flight segment in process memory.
type MemoryActiveSegmentStore struct {
	mu     sync.Mutex
	active *domain.ActiveSegment
}

func NewMemoryActiveSegmentStore() sessionout.ActiveSegmentStore {
	return &MemoryActiveSegmentStore{}
}

func (s *MemoryActiveSegmentStore) SaveActive(_ context.Context, segment domain.ActiveSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	segment.SchemaVersion = domain.SchemaVersion
	s.active = &segment
	return nil
}

func (s *MemoryActiveSegmentStore) LoadActive(_ context.Context) (domain.ActiveSegment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.SegmentID == "" {
		return domain.ActiveSegment{}, apperrors.ErrNoActiveSegment
	}
	return *s.active, nil
}

func (s *MemoryActiveSegmentStore) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	return nil
}
