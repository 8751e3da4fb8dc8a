// Package packstore persists pack and round history in SQLite. It is the
// structured half of the report sink; the markdown reports are the
// human-readable half.
package packstore

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/pack-qa/internal/loop"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS packs (
	pack_id          TEXT PRIMARY KEY,
	name             TEXT NOT NULL UNIQUE,
	categories       TEXT NOT NULL,
	threshold        REAL NOT NULL,
	max_rounds       INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	terminal_outcome TEXT,
	terminal_reason  TEXT,
	terminated_at    TEXT
);

CREATE TABLE IF NOT EXISTS rounds (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	pack_id          TEXT NOT NULL,
	round_num        INTEGER NOT NULL,
	overall_score    REAL NOT NULL,
	dimensions_json  TEXT NOT NULL,
	critical_json    TEXT,
	selected_json    TEXT NOT NULL,
	deltas_json      TEXT,
	decision         TEXT NOT NULL,
	reason           TEXT,
	synthetic        INTEGER NOT NULL DEFAULT 0,
	runtime_ms       INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	UNIQUE (pack_id, round_num),
	FOREIGN KEY (pack_id) REFERENCES packs(pack_id)
);
`

// #endregion schema

// #region store-struct
// Store manages pack run history in SQLite.
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

// DB returns the underlying *sql.DB for use by inspection tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region create-pack
// CreatePack registers a pack with its fixed category set and run settings.
// Returns an error if a pack with the same name already exists.
func (s *Store) CreatePack(name string, cfg loop.Config) (PackRecord, error) {
	catJSON, err := json.Marshal(cfg.Categories)
	if err != nil {
		return PackRecord{}, fmt.Errorf("marshal categories: %w", err)
	}

	rec := PackRecord{
		ID:         uuid.New().String(),
		Name:       name,
		Categories: cfg.Categories,
		Threshold:  cfg.Threshold,
		MaxRounds:  cfg.MaxRounds,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = s.db.Exec(
		`INSERT INTO packs (pack_id, name, categories, threshold, max_rounds, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, string(catJSON), rec.Threshold, rec.MaxRounds,
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return PackRecord{}, fmt.Errorf("insert pack %s: %w", name, err)
	}
	return rec, nil
}

// #endregion create-pack

// #region get-pack
// GetPack retrieves a pack by name.
func (s *Store) GetPack(name string) (PackRecord, error) {
	var rec PackRecord
	var catJSON, createdStr string
	var outcome, reason, terminatedStr sql.NullString

	err := s.db.QueryRow(
		`SELECT pack_id, name, categories, threshold, max_rounds, created_at,
		        terminal_outcome, terminal_reason, terminated_at
		 FROM packs WHERE name = ?`, name,
	).Scan(&rec.ID, &rec.Name, &catJSON, &rec.Threshold, &rec.MaxRounds,
		&createdStr, &outcome, &reason, &terminatedStr)
	if err != nil {
		return PackRecord{}, fmt.Errorf("get pack %s: %w", name, err)
	}

	if err := json.Unmarshal([]byte(catJSON), &rec.Categories); err != nil {
		return PackRecord{}, fmt.Errorf("unmarshal categories: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	if outcome.Valid {
		rec.TerminalOutcome = outcome.String
	}
	if reason.Valid {
		rec.TerminalReason = reason.String
	}
	if terminatedStr.Valid {
		if t, err := time.Parse(time.RFC3339Nano, terminatedStr.String); err == nil {
			rec.TerminatedAt = &t
		}
	}
	return rec, nil
}

// ListPacks returns all pack names in creation order.
func (s *Store) ListPacks() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM packs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// #endregion get-pack

// #region append-round
// AppendRound records one completed round. Enforces the contiguity
// invariant (round N+1 follows round N) and refuses writes to a retired pack.
func (s *Store) AppendRound(name string, round loop.Round) error {
	pack, err := s.GetPack(name)
	if err != nil {
		return err
	}
	if pack.Terminal() {
		return fmt.Errorf("pack %s: already terminal (%s), rounds are closed", name, pack.TerminalOutcome)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var last sql.NullInt64
	if err := tx.QueryRow(
		`SELECT MAX(round_num) FROM rounds WHERE pack_id = ?`, pack.ID,
	).Scan(&last); err != nil {
		return fmt.Errorf("read last round: %w", err)
	}
	expected := int(last.Int64) + 1
	if round.Number != expected {
		return fmt.Errorf("pack %s: round %d breaks contiguity, expected %d", name, round.Number, expected)
	}

	dimsJSON, err := json.Marshal(round.Evaluation.Dimensions)
	if err != nil {
		return fmt.Errorf("marshal dimensions: %w", err)
	}
	criticalJSON, _ := json.Marshal(round.Evaluation.CriticalIssues)
	selectedJSON, err := json.Marshal(round.Evaluation.Selected)
	if err != nil {
		return fmt.Errorf("marshal selections: %w", err)
	}
	deltasJSON, _ := json.Marshal(round.Evaluation.Deltas)

	synthetic := 0
	if round.Evaluation.Synthetic {
		synthetic = 1
	}

	_, err = tx.Exec(
		`INSERT INTO rounds
		 (pack_id, round_num, overall_score, dimensions_json, critical_json,
		  selected_json, deltas_json, decision, reason, synthetic, runtime_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pack.ID, round.Number, round.Evaluation.OverallScore,
		string(dimsJSON), string(criticalJSON), string(selectedJSON), string(deltasJSON),
		string(round.Decision), round.Reason, synthetic,
		round.Runtime.Milliseconds(),
		round.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	return tx.Commit()
}

// #endregion append-round

// #region set-terminal
// SetTerminal records the single terminal transition for a pack.
// A second transition is an error: packs retire exactly once.
func (s *Store) SetTerminal(name string, outcome loop.Outcome, reason string) error {
	res, err := s.db.Exec(
		`UPDATE packs SET terminal_outcome = ?, terminal_reason = ?, terminated_at = ?
		 WHERE name = ? AND terminal_outcome IS NULL`,
		string(outcome), reason, time.Now().UTC().Format(time.RFC3339Nano), name,
	)
	if err != nil {
		return fmt.Errorf("set terminal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set terminal: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pack %s: terminal state already recorded", name)
	}
	return nil
}

// #endregion set-terminal

// #region list-rounds
// ListRounds returns the full round history for a pack in round order.
func (s *Store) ListRounds(name string) ([]RoundRecord, error) {
	pack, err := s.GetPack(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT round_num, overall_score, dimensions_json, critical_json,
		        selected_json, deltas_json, decision, reason, synthetic, runtime_ms, created_at
		 FROM rounds WHERE pack_id = ? ORDER BY round_num`, pack.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var rec RoundRecord
		var dimsJSON, selectedJSON, createdStr string
		var criticalJSON, deltasJSON, reason sql.NullString
		var synthetic, runtimeMS int64

		if err := rows.Scan(&rec.Number, &rec.Evaluation.OverallScore,
			&dimsJSON, &criticalJSON, &selectedJSON, &deltasJSON,
			&rec.Decision, &reason, &synthetic, &runtimeMS, &createdStr); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}

		rec.PackID = pack.ID
		rec.Evaluation.PackName = name
		if err := json.Unmarshal([]byte(dimsJSON), &rec.Evaluation.Dimensions); err != nil {
			return nil, fmt.Errorf("unmarshal dimensions: %w", err)
		}
		if criticalJSON.Valid {
			_ = json.Unmarshal([]byte(criticalJSON.String), &rec.Evaluation.CriticalIssues)
		}
		if err := json.Unmarshal([]byte(selectedJSON), &rec.Evaluation.Selected); err != nil {
			return nil, fmt.Errorf("unmarshal selections: %w", err)
		}
		if deltasJSON.Valid {
			_ = json.Unmarshal([]byte(deltasJSON.String), &rec.Evaluation.Deltas)
		}
		if reason.Valid {
			rec.Reason = reason.String
		}
		rec.Evaluation.Synthetic = synthetic == 1
		rec.Runtime = time.Duration(runtimeMS) * time.Millisecond
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion list-rounds

// #region sink
// RecordRound implements loop.Sink.
func (s *Store) RecordRound(pack string, round loop.Round) error {
	return s.AppendRound(pack, round)
}

// RecordTerminal implements loop.Sink.
func (s *Store) RecordTerminal(pack string, result loop.Result) error {
	return s.SetTerminal(pack, result.Outcome, result.Reason)
}

var _ loop.Sink = (*Store)(nil)

// #endregion sink
