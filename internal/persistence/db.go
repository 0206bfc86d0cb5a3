// Package persistence provides SQLite-based storage for learned experience,
// so an agent's memory survives process restarts.
package persistence

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/hindsight/internal/advisor"
	"github.com/talgya/hindsight/internal/situation"
)

// DB wraps a SQLite connection for experience snapshots.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS context_memories (
		agent_id     TEXT NOT NULL,
		seq          INTEGER NOT NULL,
		context_key  TEXT NOT NULL,
		best_action  TEXT NOT NULL,
		best_value   REAL NOT NULL,
		worst_action TEXT NOT NULL,
		worst_value  REAL NOT NULL,
		success_rate REAL NOT NULL,
		death_rate   REAL NOT NULL,
		PRIMARY KEY (agent_id, context_key)
	);

	CREATE TABLE IF NOT EXISTS action_values (
		agent_id       TEXT NOT NULL,
		context_key    TEXT NOT NULL,
		action_key     TEXT NOT NULL,
		count          INTEGER NOT NULL,
		cumulative     REAL NOT NULL,
		average        REAL NOT NULL,
		terminal_count INTEGER NOT NULL,
		PRIMARY KEY (agent_id, context_key, action_key)
	);

	CREATE TABLE IF NOT EXISTS episodes (
		id         TEXT PRIMARY KEY,
		agent_id   TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at   TEXT,
		end_cause  TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_memories_agent ON context_memories(agent_id, seq);
	CREATE INDEX IF NOT EXISTS idx_action_values_agent ON action_values(agent_id, context_key);
	CREATE INDEX IF NOT EXISTS idx_episodes_agent ON episodes(agent_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveMemory writes one agent's full memory snapshot (full replace).
// seq preserves insertion order so FIFO eviction survives a reload.
func (db *DB) SaveMemory(agentID string, snap advisor.Snapshot) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM context_memories WHERE agent_id = ?", agentID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM action_values WHERE agent_id = ?", agentID); err != nil {
		return err
	}

	memStmt, err := tx.Preparex(`INSERT INTO context_memories
		(agent_id, seq, context_key, best_action, best_value, worst_action, worst_value, success_rate, death_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer memStmt.Close()

	actStmt, err := tx.Preparex(`INSERT INTO action_values
		(agent_id, context_key, action_key, count, cumulative, average, terminal_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer actStmt.Close()

	for seq, cs := range snap.Contexts {
		_, err := memStmt.Exec(agentID, seq, string(cs.Key),
			string(cs.BestAction), cs.BestValue,
			string(cs.WorstAction), cs.WorstValue,
			cs.SuccessRate, cs.DeathRate)
		if err != nil {
			return fmt.Errorf("insert memory %q: %w", cs.Key, err)
		}
		for _, as := range cs.Actions {
			_, err := actStmt.Exec(agentID, string(cs.Key), string(as.Key),
				as.Count, as.Cumulative, as.Average, as.TerminalCount)
			if err != nil {
				return fmt.Errorf("insert action %q/%q: %w", cs.Key, as.Key, err)
			}
		}
	}

	return tx.Commit()
}

// LoadMemory reads one agent's memory snapshot, contexts in saved insertion
// order. A missing agent yields an empty snapshot, not an error.
func (db *DB) LoadMemory(agentID string) (advisor.Snapshot, error) {
	var snap advisor.Snapshot

	type memRow struct {
		ContextKey  string  `db:"context_key"`
		BestAction  string  `db:"best_action"`
		BestValue   float64 `db:"best_value"`
		WorstAction string  `db:"worst_action"`
		WorstValue  float64 `db:"worst_value"`
		SuccessRate float64 `db:"success_rate"`
		DeathRate   float64 `db:"death_rate"`
	}
	var memRows []memRow
	err := db.conn.Select(&memRows, `
		SELECT context_key, best_action, best_value, worst_action, worst_value, success_rate, death_rate
		FROM context_memories WHERE agent_id = ? ORDER BY seq`, agentID)
	if err != nil {
		return snap, fmt.Errorf("load memories: %w", err)
	}

	type actRow struct {
		ContextKey    string  `db:"context_key"`
		ActionKey     string  `db:"action_key"`
		Count         int     `db:"count"`
		Cumulative    float64 `db:"cumulative"`
		Average       float64 `db:"average"`
		TerminalCount int     `db:"terminal_count"`
	}
	var actRows []actRow
	err = db.conn.Select(&actRows, `
		SELECT context_key, action_key, count, cumulative, average, terminal_count
		FROM action_values WHERE agent_id = ?`, agentID)
	if err != nil {
		return snap, fmt.Errorf("load action values: %w", err)
	}

	actions := make(map[string][]advisor.ActionSnapshot, len(memRows))
	for _, r := range actRows {
		actions[r.ContextKey] = append(actions[r.ContextKey], advisor.ActionSnapshot{
			Key:           situation.ActionKey(r.ActionKey),
			Count:         r.Count,
			Cumulative:    r.Cumulative,
			Average:       r.Average,
			TerminalCount: r.TerminalCount,
		})
	}

	for _, r := range memRows {
		snap.Contexts = append(snap.Contexts, advisor.ContextSnapshot{
			Key:         situation.Key(r.ContextKey),
			BestAction:  situation.ActionKey(r.BestAction),
			BestValue:   r.BestValue,
			WorstAction: situation.ActionKey(r.WorstAction),
			WorstValue:  r.WorstValue,
			SuccessRate: r.SuccessRate,
			DeathRate:   r.DeathRate,
			Actions:     actions[r.ContextKey],
		})
	}

	return snap, nil
}

// RecordEpisodeStart inserts a new episode row.
func (db *DB) RecordEpisodeStart(episodeID, agentID, startedAt string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO episodes (id, agent_id, started_at) VALUES (?, ?, ?)",
		episodeID, agentID, startedAt)
	return err
}

// RecordEpisodeEnd closes an episode row with its end cause.
func (db *DB) RecordEpisodeEnd(episodeID, endedAt, cause string) error {
	_, err := db.conn.Exec(
		"UPDATE episodes SET ended_at = ?, end_cause = ? WHERE id = ?",
		endedAt, cause, episodeID)
	return err
}

// EpisodeCount returns how many episodes an agent has lived.
func (db *DB) EpisodeCount(agentID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COUNT(*) FROM episodes WHERE agent_id = ?", agentID)
	return n, err
}

// SaveAll persists every agent's memory in one pass, logging progress.
func (db *DB) SaveAll(snapshots map[string]advisor.Snapshot) error {
	slog.Info("saving experience memory", "agents", len(snapshots))
	for agentID, snap := range snapshots {
		if err := db.SaveMemory(agentID, snap); err != nil {
			return fmt.Errorf("save agent %s: %w", agentID, err)
		}
	}
	slog.Info("experience memory saved")
	return nil
}
