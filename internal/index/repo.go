package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/anchor/internal/checksum"
	"github.com/starford/anchor/internal/models"
)

// Query selects references. Empty fields do not filter.
type Query struct {
	// Text is matched case-insensitively against name, path and tags.
	Text   string
	Status models.Status
	// Tag must equal one of the reference's tags exactly.
	Tag   string
	Limit int
}

// UpsertReference inserts or replaces one reference and its FTS entry within
// a transaction. position is the reference's index in data.json.
func (db *DB) UpsertReference(position int, r models.Reference) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := upsertRow(tx, position, r); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertRow(tx execer, position int, r models.Reference) error {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)
	desc := ""
	if r.Description != nil {
		desc = *r.Description
	}
	pinned := 0
	if r.Pinned {
		pinned = 1
	}

	_, err := tx.Exec(`
		INSERT INTO refs (id, position, name, name_key, path, path_key, type, status,
		                  status_rank, tags, tags_key, description, pinned, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position    = excluded.position,
			name        = excluded.name,
			name_key    = excluded.name_key,
			path        = excluded.path,
			path_key    = excluded.path_key,
			type        = excluded.type,
			status      = excluded.status,
			status_rank = excluded.status_rank,
			tags        = excluded.tags,
			tags_key    = excluded.tags_key,
			description = excluded.description,
			pinned      = excluded.pinned,
			checksum    = excluded.checksum
	`, r.ID, position, r.ReferenceName, strings.ToLower(r.ReferenceName),
		r.AbsolutePath, strings.ToLower(r.AbsolutePath), string(r.Type), string(r.Status),
		r.Status.Rank(), string(tagsJSON), tagsKey(tags), desc, pinned, RowChecksum(position, r))
	if err != nil {
		return fmt.Errorf("index: upsert reference: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	return ftsUpsert(tx, r.ID, r.ReferenceName, r.AbsolutePath, tags)
}

// DeleteReference removes a reference and its FTS entry.
func (db *DB) DeleteReference(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM refs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete reference: %w", err)
	}
	return tx.Commit()
}

// GetChecksum returns the stored checksum for a reference, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM refs WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed reference keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM refs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// Count returns the number of indexed references.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM refs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// Search returns the ids of matching references in display order: pinned
// first, then by status order, then by name.
func (db *DB) Search(q Query) ([]string, error) {
	var (
		where []string
		args  []any
	)
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		clause, clauseArgs := textMatch(text)
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}
	if q.Status != "" {
		where = append(where, `status = ?`)
		args = append(args, string(q.Status))
	}
	if q.Tag != "" {
		where = append(where, `EXISTS (SELECT 1 FROM json_each(refs.tags) WHERE json_each.value = ?)`)
		args = append(args, q.Tag)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT id FROM refs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY pinned DESC, status_rank, name_key, position LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RowChecksum fingerprints a reference at its position so Sync can skip
// unchanged rows.
func RowChecksum(position int, r models.Reference) string {
	data, _ := json.Marshal(r)
	return checksum.Sum(fmt.Appendf(nil, "%d:%s", position, data))
}

// likeMatch matches text as a substring of the lower-cased columns.
func likeMatch(text string) (string, []any) {
	like := "%" + escapeLike(text) + "%"
	return `(name_key LIKE ? ESCAPE '\' OR path_key LIKE ? ESCAPE '\' OR tags_key LIKE ? ESCAPE '\')`,
		[]any{like, like, like}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// tagsKey joins tags so a LIKE substring never spans two tags.
func tagsKey(tags []string) string {
	lower := make([]string, len(tags))
	for i, t := range tags {
		lower[i] = strings.ToLower(t)
	}
	return strings.Join(lower, "\x1f")
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
