//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS refs_fts USING fts5(
			id UNINDEXED,
			name,
			path,
			tags,
			tokenize = 'trigram'
		);
	`)
	return err
}

func ftsUpsert(tx execer, id, name, path string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM refs_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO refs_fts (id, name, path, tags) VALUES (?, ?, ?, ?)`,
		id, name, path, strings.Join(tags, "\x1f"))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx execer, id string) {
	_, _ = tx.Exec(`DELETE FROM refs_fts WHERE id = ?`, id)
}

// textMatch uses the trigram index for substring matching. Trigrams need at
// least three characters, so shorter text falls back to LIKE.
func textMatch(text string) (string, []any) {
	if utf8.RuneCountInString(text) < 3 {
		return likeMatch(text)
	}
	phrase := `"` + strings.ReplaceAll(text, `"`, `""`) + `"`
	return `id IN (SELECT id FROM refs_fts WHERE refs_fts MATCH ?)`, []any{phrase}
}
