package journal

import (
	"fmt"

	"github.com/starford/vefr/internal/graph"
)

// UpsertNode inserts or replaces a node row and its outgoing links within
// one transaction.
func (db *DB) UpsertNode(n graph.Node) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	isContext := 0
	if n.UI.IsContextNode {
		isContext = 1
	}
	_, err = tx.Exec(`
		INSERT INTO nodes (id, title, is_context, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			title      = excluded.title,
			is_context = excluded.is_context,
			updated_at = excluded.updated_at
	`, n.ID, n.UI.Title, isContext)
	if err != nil {
		return fmt.Errorf("journal: upsert node: %w", err)
	}

	// Replace links: delete old then bulk insert.
	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, n.ID)
	if len(n.OutgoingEdges) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target, label) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("journal: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range n.OutgoingEdges {
			if _, err := stmt.Exec(n.ID, e.TargetID, e.Label); err != nil {
				return fmt.Errorf("journal: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

// DeleteNode removes a node row and its outgoing links.
func (db *DB) DeleteNode(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("journal: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, id)
	_, _ = tx.Exec(`DELETE FROM nodes WHERE id = ?`, id)

	return tx.Commit()
}

// Edges returns the persisted outgoing edges of a node, in insert order.
func (db *DB) Edges(id string) ([]graph.Edge, error) {
	rows, err := db.conn.Query(`SELECT target, label FROM links WHERE source = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: edges: %w", err)
	}
	defer rows.Close()

	var out []graph.Edge
	for rows.Next() {
		var e graph.Edge
		if err := rows.Scan(&e.TargetID, &e.Label); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Backlinks returns all node ids that link to the given target.
func (db *DB) Backlinks(target string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, target)
	if err != nil {
		return nil, fmt.Errorf("journal: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AllIDs returns every persisted node id.
func (db *DB) AllIDs() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT id FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("journal: all ids: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// MarkDelta records a delta hash and reports whether it had been seen
// before. Seen deltas are suppressed by the emit path.
func (db *DB) MarkDelta(hash string) (bool, error) {
	res, err := db.conn.Exec(`INSERT OR IGNORE INTO delta_hashes (hash) VALUES (?)`, hash)
	if err != nil {
		return false, fmt.Errorf("journal: mark delta: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("journal: mark delta rows: %w", err)
	}
	return affected == 0, nil
}
