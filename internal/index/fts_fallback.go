//go:build !sqlite_fts5

package index

import "database/sql"

func initFTS(_ *sql.DB) error {
	// FTS5 not available; text search uses LIKE over the *_key columns.
	return nil
}

func ftsUpsert(_ execer, _, _, _ string, _ []string) error {
	// Match columns are already stored in the refs table; nothing extra to do.
	return nil
}

func ftsDelete(_ execer, _ string) {}

func textMatch(text string) (string, []any) {
	return likeMatch(text)
}
