// Package storage persists the reference collection to a single JSON file.
package storage

import "github.com/starford/anchor/internal/models"

// Provider is the interface for whole-collection persistence.
type Provider interface {
	// LoadAll returns the persisted collection in stored order. A missing,
	// empty or unparsable file yields an empty collection.
	LoadAll() ([]models.Reference, error)
	// SaveAll atomically replaces the persisted collection.
	SaveAll(refs []models.Reference) error
}
