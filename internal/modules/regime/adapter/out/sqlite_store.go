package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"breathtrain/internal/modules/regime/domain"
	apperrors "breathtrain/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type txKey struct{}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore persists regimes, segments and daily assignments. It also acts as the
// tx.Manager for multi-step writes: calls made with a context returned inside Within
// share one transaction.
type SQLiteStore struct {
	db           *sql.DB
	stageTargets map[domain.Stage]int
}

func NewSQLiteStore(dbPath string, stageTargets map[int]int) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a second connection would block on the write lock held by an open transaction
	db.SetMaxOpenConns(1)
	targets := make(map[domain.Stage]int, len(stageTargets))
	for stage, n := range stageTargets {
		targets[domain.Stage(stage)] = n
	}
	s := &SQLiteStore{db: db, stageTargets: targets}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS regimes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  duration_ms INTEGER NOT NULL,
  breaths_per_minute REAL NOT NULL,
  hold_pos TEXT NOT NULL DEFAULT '',
  randomize INTEGER NOT NULL,
  is_best_cnt INTEGER NOT NULL DEFAULT 0,
  UNIQUE (duration_ms, breaths_per_minute, hold_pos, randomize)
);
CREATE TABLE IF NOT EXISTS segments (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uid TEXT NOT NULL UNIQUE,
  regime_id INTEGER REFERENCES regimes(id),
  session_start_ms INTEGER NOT NULL,
  end_ms INTEGER NOT NULL,
  avg_coherence REAL NOT NULL,
  stage INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_segments_stage_end ON segments(stage, end_ms);
CREATE INDEX IF NOT EXISTS idx_segments_regime ON segments(regime_id);
CREATE TABLE IF NOT EXISTS daily_assignments (
  date TEXT NOT NULL,
  stage INTEGER NOT NULL,
  position INTEGER NOT NULL,
  regime_id INTEGER NOT NULL REFERENCES regimes(id),
  PRIMARY KEY (date, stage, position)
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create regime schema: %w", err)
	}
	return nil
}

// Within runs fn inside a transaction. Nested calls reuse the outer transaction.
func (s *SQLiteStore) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) conn(ctx context.Context) queryer {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *SQLiteStore) GetOrCreateRegimeID(ctx context.Context, regime domain.Regime) (int64, error) {
	if err := regime.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.Within(ctx, func(ctx context.Context) error {
		found, err := s.lookupRegimeID(ctx, regime.Key())
		if err == nil {
			id = found
			return nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		res, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO regimes (duration_ms, breaths_per_minute, hold_pos, randomize, is_best_cnt)
VALUES (?, ?, ?, ?, ?);
`, regime.DurationMs, regime.BreathsPerMinute, string(regime.HoldPos), regime.Randomize, regime.IsBestCnt)
		if err != nil {
			return fmt.Errorf("insert regime %s: %w", regime, err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read regime id: %w", err)
		}
		return nil
	})
	return id, err
}

func (s *SQLiteStore) lookupRegimeID(ctx context.Context, key domain.Key) (int64, error) {
	var id int64
	err := s.conn(ctx).QueryRowContext(ctx, `
SELECT id FROM regimes
WHERE duration_ms = ? AND breaths_per_minute = ? AND hold_pos = ? AND randomize = ?;
`, key.DurationMs, key.BreathsPerMinute, string(key.HoldPos), key.Randomize).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup regime: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) GetRegimeByID(ctx context.Context, id int64) (domain.Regime, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
SELECT id, duration_ms, breaths_per_minute, hold_pos, randomize, is_best_cnt
FROM regimes WHERE id = ?;
`, id)
	regime, err := scanRegime(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Regime{}, fmt.Errorf("regime %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Regime{}, fmt.Errorf("get regime %d: %w", id, err)
	}
	return regime, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegime(row rowScanner) (domain.Regime, error) {
	var (
		r    domain.Regime
		hold string
	)
	if err := row.Scan(&r.ID, &r.DurationMs, &r.BreathsPerMinute, &hold, &r.Randomize, &r.IsBestCnt); err != nil {
		return domain.Regime{}, err
	}
	r.HoldPos = domain.HoldPos(hold)
	return r, nil
}

// GetAllRegimeIDs returns regimes assigned or practiced in stages 2 through stage.
func (s *SQLiteStore) GetAllRegimeIDs(ctx context.Context, stage domain.Stage) ([]int64, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
SELECT regime_id FROM daily_assignments WHERE stage BETWEEN 2 AND ?
UNION
SELECT regime_id FROM segments WHERE regime_id IS NOT NULL AND stage BETWEEN 2 AND ?
ORDER BY regime_id ASC;
`, int(stage), int(stage))
	if err != nil {
		return nil, fmt.Errorf("list regime ids: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan regime id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate regime ids: %w", err)
	}
	return ids, nil
}

func (s *SQLiteStore) GetRegimeStats(ctx context.Context, id int64) (domain.RegimeStats, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
SELECT avg_coherence FROM segments
WHERE regime_id = ? AND stage IN (2, 3)
ORDER BY id ASC;
`, id)
	if err != nil {
		return domain.RegimeStats{}, fmt.Errorf("load coherence for regime %d: %w", id, err)
	}
	defer rows.Close()
	values := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return domain.RegimeStats{}, fmt.Errorf("scan coherence: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return domain.RegimeStats{}, fmt.Errorf("iterate coherence: %w", err)
	}
	return domain.ComputeStats(id, values), nil
}

func (s *SQLiteStore) GetMinCoherencePacedRegimeID(ctx context.Context) (int64, error) {
	var id int64
	err := s.conn(ctx).QueryRowContext(ctx, `
SELECT regime_id FROM segments
WHERE regime_id IS NOT NULL AND stage <> 1
GROUP BY regime_id
ORDER BY AVG(avg_coherence) ASC, regime_id ASC
LIMIT 1;
`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("no paced segments outside stage 1: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("min coherence regime: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) IsStageComplete(ctx context.Context, stage domain.Stage) (bool, error) {
	target := s.stageTargets[stage]
	if target <= 0 {
		return false, nil
	}
	var n int
	err := s.conn(ctx).QueryRowContext(ctx, `
SELECT COUNT(*) FROM segments WHERE stage = ? AND regime_id IS NOT NULL;
`, int(stage)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count stage %d segments: %w", int(stage), err)
	}
	return n >= target, nil
}

func (s *SQLiteStore) GetSegmentsCompletedBetween(ctx context.Context, stage domain.Stage, from, to time.Time) ([]domain.Segment, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
SELECT id, uid, regime_id, session_start_ms, end_ms, avg_coherence, stage
FROM segments
WHERE stage = ? AND end_ms >= ? AND end_ms < ?
ORDER BY end_ms ASC, id ASC;
`, int(stage), from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()
	out := make([]domain.Segment, 0)
	for rows.Next() {
		var (
			seg            domain.Segment
			regimeID       sql.NullInt64
			startMs, endMs int64
			stageN         int
		)
		if err := rows.Scan(&seg.ID, &seg.UID, &regimeID, &startMs, &endMs, &seg.AvgCoherence, &stageN); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		if regimeID.Valid {
			id := regimeID.Int64
			seg.RegimeID = &id
		}
		seg.SessionStartTime = time.UnixMilli(startMs)
		seg.EndDateTime = time.UnixMilli(endMs)
		seg.Stage = domain.Stage(stageN)
		out = append(out, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate segments: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) GetDailyAssignment(ctx context.Context, date string, stage domain.Stage) ([]domain.Regime, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
SELECT r.id, r.duration_ms, r.breaths_per_minute, r.hold_pos, r.randomize, r.is_best_cnt
FROM daily_assignments a
JOIN regimes r ON r.id = a.regime_id
WHERE a.date = ? AND a.stage = ?
ORDER BY a.position ASC;
`, date, int(stage))
	if err != nil {
		return nil, fmt.Errorf("load assignment for %s: %w", date, err)
	}
	defer rows.Close()
	out := make([]domain.Regime, 0, domain.RegimesPerDay)
	for rows.Next() {
		r, err := scanRegime(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assigned regime: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment: %w", err)
	}
	return out, nil
}

// SaveDailyAssignment writes the ordered regimes for a day. Assignments are append-only.
func (s *SQLiteStore) SaveDailyAssignment(ctx context.Context, regimes []domain.Regime, date string, stage domain.Stage) error {
	for _, r := range regimes {
		if r.ID == 0 {
			return fmt.Errorf("%w: cannot assign unsaved %s", apperrors.ErrDataIntegrity, r)
		}
	}
	return s.Within(ctx, func(ctx context.Context) error {
		var existing int
		if err := s.conn(ctx).QueryRowContext(ctx, `
SELECT COUNT(*) FROM daily_assignments WHERE date = ? AND stage = ?;
`, date, int(stage)).Scan(&existing); err != nil {
			return fmt.Errorf("count assignment for %s: %w", date, err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: assignment for %s stage %d already exists", apperrors.ErrDataIntegrity, date, int(stage))
		}
		for pos, r := range regimes {
			if _, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO daily_assignments (date, stage, position, regime_id) VALUES (?, ?, ?, ?);
`, date, int(stage), pos, r.ID); err != nil {
				return fmt.Errorf("insert assignment slot %d: %w", pos, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) SetRegimeBestCount(ctx context.Context, id int64, count int) error {
	res, err := s.conn(ctx).ExecContext(ctx, `UPDATE regimes SET is_best_cnt = ? WHERE id = ?`, count, id)
	if err != nil {
		return fmt.Errorf("set best count for regime %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set best count rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("regime %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) RecordSegment(ctx context.Context, segment domain.Segment) (int64, error) {
	if err := segment.Validate(); err != nil {
		return 0, err
	}
	var regimeID sql.NullInt64
	if segment.RegimeID != nil {
		regimeID = sql.NullInt64{Int64: *segment.RegimeID, Valid: true}
	}
	res, err := s.conn(ctx).ExecContext(ctx, `
INSERT INTO segments (uid, regime_id, session_start_ms, end_ms, avg_coherence, stage)
VALUES (?, ?, ?, ?, ?, ?);
`, segment.UID, regimeID, segment.SessionStartTime.UnixMilli(), segment.EndDateTime.UnixMilli(), segment.AvgCoherence, int(segment.Stage))
	if err != nil {
		return 0, fmt.Errorf("insert segment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read segment id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) ListRegimeStats(ctx context.Context) ([]domain.Regime, []domain.RegimeStats, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
SELECT id, duration_ms, breaths_per_minute, hold_pos, randomize, is_best_cnt
FROM regimes ORDER BY id ASC;
`)
	if err != nil {
		return nil, nil, fmt.Errorf("list regimes: %w", err)
	}
	regimes := make([]domain.Regime, 0)
	for rows.Next() {
		r, err := scanRegime(rows)
		if err != nil {
			rows.Close()
			return nil, nil, fmt.Errorf("scan regime: %w", err)
		}
		regimes = append(regimes, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, fmt.Errorf("iterate regimes: %w", err)
	}
	// release the single connection before the per-regime queries
	rows.Close()

	stats := make([]domain.RegimeStats, 0, len(regimes))
	for _, r := range regimes {
		st, err := s.GetRegimeStats(ctx, r.ID)
		if err != nil {
			return nil, nil, err
		}
		stats = append(stats, st)
	}
	return regimes, stats, nil
}
