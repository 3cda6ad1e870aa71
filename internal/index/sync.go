package index

import (
	"log/slog"

	"github.com/starford/anchor/internal/models"
)

// Sync brings the index up to date with refs, the full collection in
// data.json order:
//   - new/changed references are upserted
//   - references no longer present are deleted from the index
func Sync(db ReferenceIndex, refs []models.Reference, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, len(refs))
	for i, r := range refs {
		current[r.ID] = struct{}{}

		if checksums[r.ID] == RowChecksum(i, r) {
			continue
		}
		if err := db.UpsertReference(i, r); err != nil {
			logger.Warn("sync: index failed", slog.String("id", r.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("id", r.ID))
		}
	}

	// Remove stale entries.
	for id := range checksums {
		if _, ok := current[id]; !ok {
			if err := db.DeleteReference(id); err != nil {
				logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("id", id))
			}
		}
	}

	return nil
}
