package out

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"breathtrain/internal/modules/regime/domain"
	apperrors "breathtrain/internal/platform/errors"
)

type assignmentKey struct {
	date  string
	stage domain.Stage
}

// MemoryStore is a content-addressed in-process store. Regimes are keyed by their
// value tuple so get-or-create never mints a second id for the same pattern.
// It backs ephemeral runs and tests; nothing survives the process.
type MemoryStore struct {
	mu            sync.Mutex
	nextRegimeID  int64
	nextSegmentID int64
	ids           map[domain.Key]int64
	regimes       map[int64]domain.Regime
	segments      []domain.Segment
	assignments   map[assignmentKey][]int64
	stageTargets  map[domain.Stage]int
}

func NewMemoryStore(stageTargets map[int]int) *MemoryStore {
	targets := make(map[domain.Stage]int, len(stageTargets))
	for stage, n := range stageTargets {
		targets[domain.Stage(stage)] = n
	}
	return &MemoryStore{
		ids:          map[domain.Key]int64{},
		regimes:      map[int64]domain.Regime{},
		assignments:  map[assignmentKey][]int64{},
		stageTargets: targets,
	}
}

func (m *MemoryStore) GetOrCreateRegimeID(_ context.Context, regime domain.Regime) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := regime.Validate(); err != nil {
		return 0, err
	}
	if id, ok := m.ids[regime.Key()]; ok {
		return id, nil
	}
	m.nextRegimeID++
	regime.ID = m.nextRegimeID
	m.ids[regime.Key()] = regime.ID
	m.regimes[regime.ID] = regime
	return regime.ID, nil
}

func (m *MemoryStore) GetRegimeByID(_ context.Context, id int64) (domain.Regime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regimes[id]
	if !ok {
		return domain.Regime{}, fmt.Errorf("regime %d: %w", id, apperrors.ErrNotFound)
	}
	return r, nil
}

func (m *MemoryStore) GetAllRegimeIDs(_ context.Context, stage domain.Stage) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]struct{}{}
	for key, ids := range m.assignments {
		if key.stage < domain.StageFixed || key.stage > stage {
			continue
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	for _, seg := range m.segments {
		if seg.RegimeID == nil || seg.Stage < domain.StageFixed || seg.Stage > stage {
			continue
		}
		seen[*seg.RegimeID] = struct{}{}
	}
	out := make([]int64, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (m *MemoryStore) GetRegimeStats(_ context.Context, id int64) (domain.RegimeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked(id), nil
}

func (m *MemoryStore) statsLocked(id int64) domain.RegimeStats {
	values := make([]float64, 0)
	for _, seg := range m.segments {
		if seg.RegimeID == nil || *seg.RegimeID != id {
			continue
		}
		if seg.Stage == domain.StageFixed || seg.Stage == domain.StageAdaptive {
			values = append(values, seg.AvgCoherence)
		}
	}
	return domain.ComputeStats(id, values)
}

func (m *MemoryStore) GetMinCoherencePacedRegimeID(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := map[int64]float64{}
	counts := map[int64]int{}
	for _, seg := range m.segments {
		if seg.RegimeID == nil || seg.Stage == domain.StageSetup {
			continue
		}
		sums[*seg.RegimeID] += seg.AvgCoherence
		counts[*seg.RegimeID]++
	}
	if len(counts) == 0 {
		return 0, fmt.Errorf("no paced segments outside stage 1: %w", apperrors.ErrNotFound)
	}
	var (
		minID  int64
		minAvg = math.Inf(1)
	)
	for id, n := range counts {
		avg := sums[id] / float64(n)
		if avg < minAvg || (avg == minAvg && id < minID) {
			minID, minAvg = id, avg
		}
	}
	return minID, nil
}

func (m *MemoryStore) IsStageComplete(_ context.Context, stage domain.Stage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	target := m.stageTargets[stage]
	if target <= 0 {
		return false, nil
	}
	n := 0
	for _, seg := range m.segments {
		if seg.Stage == stage && seg.RegimeID != nil {
			n++
		}
	}
	return n >= target, nil
}

func (m *MemoryStore) GetSegmentsCompletedBetween(_ context.Context, stage domain.Stage, from, to time.Time) ([]domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Segment, 0)
	for _, seg := range m.segments {
		if seg.Stage != stage || seg.EndDateTime.Before(from) || !seg.EndDateTime.Before(to) {
			continue
		}
		out = append(out, seg)
	}
	return out, nil
}

func (m *MemoryStore) GetDailyAssignment(_ context.Context, date string, stage domain.Stage) ([]domain.Regime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.assignments[assignmentKey{date: date, stage: stage}]
	out := make([]domain.Regime, 0, len(ids))
	for _, id := range ids {
		r, ok := m.regimes[id]
		if !ok {
			return nil, fmt.Errorf("%w: assignment for %s references unknown regime %d", apperrors.ErrDataIntegrity, date, id)
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *MemoryStore) SaveDailyAssignment(_ context.Context, regimes []domain.Regime, date string, stage domain.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assignmentKey{date: date, stage: stage}
	if len(m.assignments[key]) > 0 {
		return fmt.Errorf("%w: assignment for %s stage %d already exists", apperrors.ErrDataIntegrity, date, int(stage))
	}
	ids := make([]int64, 0, len(regimes))
	for _, r := range regimes {
		if _, ok := m.regimes[r.ID]; !ok {
			return fmt.Errorf("%w: cannot assign unsaved %s", apperrors.ErrDataIntegrity, r)
		}
		ids = append(ids, r.ID)
	}
	m.assignments[key] = ids
	return nil
}

// PutDailyAssignment overwrites a day's assignment without checks. Used to seed
// malformed data in tests.
func (m *MemoryStore) PutDailyAssignment(date string, stage domain.Stage, ids []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[assignmentKey{date: date, stage: stage}] = append([]int64(nil), ids...)
}

func (m *MemoryStore) SetRegimeBestCount(_ context.Context, id int64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regimes[id]
	if !ok {
		return fmt.Errorf("regime %d: %w", id, apperrors.ErrNotFound)
	}
	r.IsBestCnt = count
	m.regimes[id] = r
	return nil
}

func (m *MemoryStore) RecordSegment(_ context.Context, segment domain.Segment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := segment.Validate(); err != nil {
		return 0, err
	}
	m.nextSegmentID++
	segment.ID = m.nextSegmentID
	m.segments = append(m.segments, segment)
	return segment.ID, nil
}

func (m *MemoryStore) ListRegimeStats(_ context.Context) ([]domain.Regime, []domain.RegimeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.regimes))
	for id := range m.regimes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	regimes := make([]domain.Regime, 0, len(ids))
	stats := make([]domain.RegimeStats, 0, len(ids))
	for _, id := range ids {
		regimes = append(regimes, m.regimes[id])
		stats = append(stats, m.statsLocked(id))
	}
	return regimes, stats, nil
}
