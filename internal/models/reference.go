// Package models defines the domain types for Anchor.
package models

// RefType is the kind of filesystem entry a reference points at.
type RefType string

const (
	TypeFolder RefType = "folder"
	TypeFile   RefType = "file"
)

// Status is the lifecycle label a user attaches to a reference.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusIdea      Status = "idea"
	StatusArchived  Status = "archived"
)

// StatusOrder is the display order used when grouping references by status.
var StatusOrder = []Status{StatusActive, StatusPaused, StatusIdea, StatusCompleted, StatusArchived}

// Rank returns the position of s in StatusOrder, or len(StatusOrder) if unknown.
func (s Status) Rank() int {
	for i, v := range StatusOrder {
		if v == s {
			return i
		}
	}
	return len(StatusOrder)
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s.Rank() < len(StatusOrder)
}

// Reference is a tracked filesystem path with its metadata.
// JSON names match the on-disk data.json format and must not change.
type Reference struct {
	ID            string    `json:"id"`
	ReferenceName string    `json:"referenceName"`
	AbsolutePath  string    `json:"absolutePath"`
	Type          RefType   `json:"type"`
	Status        Status    `json:"status"`
	Tags          []string  `json:"tags"`
	Description   *string   `json:"description"`
	CreatedAt     Timestamp `json:"createdAt"`
	LastOpenedAt  Timestamp `json:"lastOpenedAt"`
	Pinned        bool      `json:"pinned"`
}

// Candidate carries the user-editable fields of a Reference.
// Server-assigned fields (id, timestamps) are never taken from callers.
type Candidate struct {
	ReferenceName string   `json:"referenceName"`
	AbsolutePath  string   `json:"absolutePath"`
	Type          RefType  `json:"type"`
	Status        Status   `json:"status"`
	Tags          []string `json:"tags"`
	Description   *string  `json:"description"`
	Pinned        bool     `json:"pinned"`
}

// StorageFile is the root object of data.json.
type StorageFile struct {
	References []Reference `json:"references"`
}
