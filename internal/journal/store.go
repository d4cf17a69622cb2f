// Package journal persists learner sessions to SQLite so they can be
// inspected and replayed later. The journal is write-through only: the
// engine never reads its state back from here, a replay recomputes it.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id  TEXT PRIMARY KEY,
	curriculum  TEXT NOT NULL,
	seed        INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id     TEXT NOT NULL,
	seq            INTEGER NOT NULL,
	activity_id    TEXT NOT NULL,
	code           TEXT NOT NULL,
	steps_json     TEXT NOT NULL,
	score          REAL NOT NULL,
	rewards_json   TEXT NOT NULL,
	stage          INTEGER NOT NULL,
	advanced       INTEGER NOT NULL,
	activated_json TEXT,
	retired_json   TEXT,
	created_at     TEXT NOT NULL,
	UNIQUE (session_id, seq),
	FOREIGN KEY (session_id) REFERENCES sessions(session_id)
);

CREATE INDEX IF NOT EXISTS idx_cycles_session ON cycles(session_id, seq);
`

// #endregion schema

// #region store-struct
// Store manages session journals in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion db-accessor

// #region begin-session
// BeginSession registers a new session and returns its record.
func (s *Store) BeginSession(curriculum string, seed uint64) (SessionRecord, error) {
	rec := SessionRecord{
		ID:         uuid.New().String(),
		Curriculum: curriculum,
		Seed:       seed,
		CreatedAt:  time.Now().UTC(),
	}

	// seeds are stored two's complement; int64 round-trips all uint64 values
	_, err := s.db.Exec(
		`INSERT INTO sessions (session_id, curriculum, seed, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Curriculum, int64(rec.Seed), rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("insert session: %w", err)
	}
	return rec, nil
}

// #endregion begin-session

// #region record-cycle
// RecordCycle appends one cycle to its session. The (session, seq) pair is
// unique, so double-writes fail instead of corrupting the journal.
func (s *Store) RecordCycle(rec CycleRecord) error {
	stepsJSON, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	rewardsJSON, err := json.Marshal(rec.Rewards)
	if err != nil {
		return fmt.Errorf("marshal rewards: %w", err)
	}

	var activatedPtr interface{}
	if len(rec.Activated) > 0 {
		b, err := json.Marshal(rec.Activated)
		if err != nil {
			return fmt.Errorf("marshal activated: %w", err)
		}
		activatedPtr = string(b)
	}
	var retiredPtr interface{}
	if len(rec.Retired) > 0 {
		b, err := json.Marshal(rec.Retired)
		if err != nil {
			return fmt.Errorf("marshal retired: %w", err)
		}
		retiredPtr = string(b)
	}

	advanced := 0
	if rec.Advanced {
		advanced = 1
	}

	_, err = s.db.Exec(
		`INSERT INTO cycles (session_id, seq, activity_id, code, steps_json, score, rewards_json,
		                     stage, advanced, activated_json, retired_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Seq, rec.ActivityID, rec.Code, string(stepsJSON), rec.Score, string(rewardsJSON),
		rec.Stage, advanced, activatedPtr, retiredPtr, rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

// #endregion record-cycle

// #region get-session
// Session retrieves one session by ID.
func (s *Store) Session(id string) (SessionRecord, error) {
	var rec SessionRecord
	var seed int64
	var createdStr string

	err := s.db.QueryRow(
		`SELECT session_id, curriculum, seed, created_at FROM sessions WHERE session_id = ?`, id,
	).Scan(&rec.ID, &rec.Curriculum, &seed, &createdStr)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session %s: %w", id, err)
	}
	rec.Seed = uint64(seed)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

// #endregion get-session

// #region list-sessions
// Sessions returns the most recent sessions.
func (s *Store) Sessions(limit int) ([]SessionRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, curriculum, seed, created_at FROM sessions ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		var seed int64
		var createdStr string
		if err := rows.Scan(&rec.ID, &rec.Curriculum, &seed, &createdStr); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Seed = uint64(seed)
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-sessions

// #region list-cycles
// Cycles returns every cycle of a session in seq order.
func (s *Store) Cycles(sessionID string) ([]CycleRecord, error) {
	rows, err := s.db.Query(
		`SELECT session_id, seq, activity_id, code, steps_json, score, rewards_json,
		        stage, advanced, activated_json, retired_json, created_at
		 FROM cycles WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var records []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var stepsJSON, rewardsJSON, createdStr string
		var activatedJSON, retiredJSON sql.NullString
		var advanced int

		if err := rows.Scan(&rec.SessionID, &rec.Seq, &rec.ActivityID, &rec.Code, &stepsJSON, &rec.Score,
			&rewardsJSON, &rec.Stage, &advanced, &activatedJSON, &retiredJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}

		if err := json.Unmarshal([]byte(stepsJSON), &rec.Steps); err != nil {
			return nil, fmt.Errorf("unmarshal steps: %w", err)
		}
		if err := json.Unmarshal([]byte(rewardsJSON), &rec.Rewards); err != nil {
			return nil, fmt.Errorf("unmarshal rewards: %w", err)
		}
		if activatedJSON.Valid {
			if err := json.Unmarshal([]byte(activatedJSON.String), &rec.Activated); err != nil {
				return nil, fmt.Errorf("unmarshal activated: %w", err)
			}
		}
		if retiredJSON.Valid {
			if err := json.Unmarshal([]byte(retiredJSON.String), &rec.Retired); err != nil {
				return nil, fmt.Errorf("unmarshal retired: %w", err)
			}
		}
		rec.Advanced = advanced != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-cycles
