// Package ledger keeps a per-episode record of training sessions in sqlite
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeu5/royale-rl/types"

	_ "modernc.org/sqlite"
)

// Entry is the summary of one episode
type Entry struct {
	Session     string
	Episode     int
	Steps       int
	Skipped     int
	TotalReward float64
	Outcome     types.Outcome
	Epsilon     float64
	Duration    time.Duration
	Err         string
	RecordedAt  time.Time
}

// Session summarises all the recorded episodes of a session
type Session struct {
	ID          string
	Episodes    int
	Victories   int
	Defeats     int
	MeanReward  float64
	StartedAt   time.Time
	LastUpdated time.Time
}

type Ledger struct {
	db *sql.DB
}

var _ types.EpisodeObserver = &Ledger{}

func Open(dbPath string) (*Ledger, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS episodes (
    session        TEXT    NOT NULL,
    episode        INTEGER NOT NULL,
    steps          INTEGER NOT NULL,
    skipped        INTEGER NOT NULL,
    total_reward   REAL    NOT NULL,
    outcome        INTEGER NOT NULL,
    epsilon        REAL    NOT NULL,
    duration_ms    INTEGER NOT NULL,
    error          TEXT    NOT NULL DEFAULT '',
    recorded_at_ms INTEGER NOT NULL,
    PRIMARY KEY (session, episode)
);`)
	if err != nil {
		return fmt.Errorf("failed to create episodes table: %w", err)
	}
	return nil
}

func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record stores the entry, replacing an earlier record of the same episode
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
INSERT OR REPLACE INTO episodes (
    session, episode, steps, skipped, total_reward, outcome, epsilon, duration_ms, error, recorded_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		e.Session, e.Episode, e.Steps, e.Skipped, e.TotalReward, int32(e.Outcome), e.Epsilon,
		e.Duration.Milliseconds(), e.Err, e.RecordedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record episode %d: %w", e.Episode, err)
	}
	return nil
}

// Episodes of the session in episode order
func (l *Ledger) Episodes(ctx context.Context, session string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT session, episode, steps, skipped, total_reward, outcome, epsilon, duration_ms, error, recorded_at_ms
FROM episodes WHERE session = ? ORDER BY episode ASC;`, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0)
	for rows.Next() {
		var (
			e          Entry
			outcome    int32
			durationMs int64
			recordedMs int64
		)
		if err := rows.Scan(&e.Session, &e.Episode, &e.Steps, &e.Skipped, &e.TotalReward,
			&outcome, &e.Epsilon, &durationMs, &e.Err, &recordedMs); err != nil {
			return nil, err
		}
		e.Outcome = types.Outcome(outcome)
		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.RecordedAt = time.UnixMilli(recordedMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions lists every session, most recently updated first
func (l *Ledger) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := l.db.QueryContext(ctx, `
SELECT session,
       COUNT(*),
       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
       SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
       AVG(total_reward),
       MIN(recorded_at_ms),
       MAX(recorded_at_ms)
FROM episodes
GROUP BY session
ORDER BY MAX(recorded_at_ms) DESC, session ASC;`, int32(types.OutcomeVictory), int32(types.OutcomeDefeat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		var (
			s           Session
			first, last int64
		)
		if err := rows.Scan(&s.ID, &s.Episodes, &s.Victories, &s.Defeats, &s.MeanReward, &first, &last); err != nil {
			return nil, err
		}
		s.StartedAt = time.UnixMilli(first).UTC()
		s.LastUpdated = time.UnixMilli(last).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

// ObserveEpisode records the finished episode
func (l *Ledger) ObserveEpisode(eCtx *types.EpisodeContext) error {
	e := Entry{
		Session:     eCtx.Session,
		Episode:     eCtx.Episode,
		Steps:       eCtx.Steps,
		Skipped:     eCtx.Skipped,
		TotalReward: eCtx.TotalReward,
		Outcome:     eCtx.Outcome,
		Epsilon:     eCtx.Epsilon,
		Duration:    eCtx.RunDuration,
	}
	if eCtx.Err != nil {
		e.Err = eCtx.Err.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return l.Record(ctx, e)
}
