package backend

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// LatencyHistory persists observed backend latencies across runs so the
// router can break ties toward historically faster backends. Only
// latencies are stored — assumptions themselves are never persisted.
type LatencyHistory struct {
	db *sql.DB
}

// OpenLatencyHistory opens (or creates) the history database at path.
// Pass ":memory:" for an ephemeral store.
func OpenLatencyHistory(path string) (*LatencyHistory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open latency history: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS backend_latency (
		backend_id TEXT PRIMARY KEY,
		total_ms   INTEGER NOT NULL,
		samples    INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init latency history: %w", err)
	}
	return &LatencyHistory{db: db}, nil
}

// Record folds one observed latency into the running aggregate.
func (h *LatencyHistory) Record(backendID string, latency time.Duration) error {
	const upsert = `
	INSERT INTO backend_latency (backend_id, total_ms, samples) VALUES (?, ?, 1)
	ON CONFLICT(backend_id) DO UPDATE SET
		total_ms = total_ms + excluded.total_ms,
		samples  = samples + 1`
	_, err := h.db.Exec(upsert, backendID, latency.Milliseconds())
	return err
}

// Snapshot returns the mean latency per backend. Backends with no samples
// are absent; the router treats them as unknown (worst) latency.
func (h *LatencyHistory) Snapshot() (map[string]time.Duration, error) {
	rows, err := h.db.Query(`SELECT backend_id, total_ms, samples FROM backend_latency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]time.Duration)
	for rows.Next() {
		var id string
		var totalMs, samples int64
		if err := rows.Scan(&id, &totalMs, &samples); err != nil {
			return nil, err
		}
		if samples > 0 {
			out[id] = time.Duration(totalMs/samples) * time.Millisecond
		}
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (h *LatencyHistory) Close() error { return h.db.Close() }
