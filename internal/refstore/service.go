// Package refstore implements validated create/update/delete over the
// persisted reference collection.
package refstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/anchor/internal/apperr"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/storage"
)

// Notifier receives a signal after every successful mutation.
type Notifier interface {
	PublishChanged()
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func()

// PublishChanged calls f.
func (f NotifierFunc) PublishChanged() { f() }

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service serializes load → mutate → save cycles against a storage.Provider.
type Service struct {
	store    storage.Provider
	notifier Notifier
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger

	mu sync.Mutex // held for a whole load-mutate-save unit
}

// NewService creates a new reference service.
func NewService(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the full collection in stored order.
func (s *Service) List(_ context.Context) ([]models.Reference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadAll()
}

// Get returns one reference by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Reference, error) {
	refs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(refs, id)
	if i < 0 {
		return nil, apperr.NotFound(id)
	}
	ref := refs[i]
	return &ref, nil
}

// Create validates c, assigns an id and timestamps, and appends it.
func (s *Service) Create(_ context.Context, c models.Candidate) (*models.Reference, error) {
	c = normalize(c)
	if err := validate(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	refs, err := s.store.LoadAll()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	id := s.newID()
	for indexOf(refs, id) >= 0 {
		id = s.newID()
	}
	now := models.NewTimestamp(s.timestamp())
	ref := models.Reference{
		ID:            id,
		ReferenceName: c.ReferenceName,
		AbsolutePath:  c.AbsolutePath,
		Type:          c.Type,
		Status:        c.Status,
		Tags:          c.Tags,
		Description:   c.Description,
		CreatedAt:     now,
		LastOpenedAt:  now,
		Pinned:        c.Pinned,
	}
	refs = append(refs, ref)
	if err := s.store.SaveAll(refs); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("save references: %w", err)
	}
	s.mu.Unlock()

	s.logger.Debug("reference created", slog.String("id", ref.ID))
	s.notify()
	return &ref, nil
}

// Update replaces the editable fields of the reference with the given id in
// place, keeping id and createdAt and refreshing lastOpenedAt.
func (s *Service) Update(_ context.Context, id string, c models.Candidate) (*models.Reference, error) {
	c = normalize(c)
	if err := validate(c); err != nil {
		return nil, err
	}

	s.mu.Lock()
	refs, err := s.store.LoadAll()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	i := indexOf(refs, id)
	if i < 0 {
		s.mu.Unlock()
		return nil, apperr.NotFound(id)
	}

	prev := refs[i]
	now := s.timestamp()
	if last, ok := prev.LastOpenedAt.Time(); ok && !now.After(last) {
		now = last.Add(time.Nanosecond)
	}
	ref := models.Reference{
		ID:            prev.ID,
		ReferenceName: c.ReferenceName,
		AbsolutePath:  c.AbsolutePath,
		Type:          c.Type,
		Status:        c.Status,
		Tags:          c.Tags,
		Description:   c.Description,
		CreatedAt:     prev.CreatedAt,
		LastOpenedAt:  models.NewTimestamp(now),
		Pinned:        c.Pinned,
	}
	refs[i] = ref
	if err := s.store.SaveAll(refs); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("save references: %w", err)
	}
	s.mu.Unlock()

	s.logger.Debug("reference updated", slog.String("id", ref.ID))
	s.notify()
	return &ref, nil
}

// Delete removes the reference with the given id.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	refs, err := s.store.LoadAll()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	i := indexOf(refs, id)
	if i < 0 {
		s.mu.Unlock()
		return apperr.NotFound(id)
	}
	refs = slices.Delete(refs, i, i+1)
	if err := s.store.SaveAll(refs); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("save references: %w", err)
	}
	s.mu.Unlock()

	s.logger.Debug("reference deleted", slog.String("id", id))
	s.notify()
	return nil
}

// Filter returns the references matching query (case-insensitive, over name,
// path and tags), optionally restricted to a status and a tag, ordered pinned
// first, then by status order, then by name.
func Filter(refs []models.Reference, query string, status models.Status, tag string) []models.Reference {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Reference, 0, len(refs))
	for _, r := range refs {
		if status != "" && r.Status != status {
			continue
		}
		if tag != "" && !slices.Contains(r.Tags, tag) {
			continue
		}
		if q != "" && !matches(r, q) {
			continue
		}
		out = append(out, r)
	}
	SortForDisplay(out)
	return out
}

// SortForDisplay orders refs pinned first, then by status order, then by name.
func SortForDisplay(refs []models.Reference) {
	slices.SortStableFunc(refs, func(a, b models.Reference) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		if d := a.Status.Rank() - b.Status.Rank(); d != 0 {
			return d
		}
		return strings.Compare(strings.ToLower(a.ReferenceName), strings.ToLower(b.ReferenceName))
	})
}

func matches(r models.Reference, q string) bool {
	if strings.Contains(strings.ToLower(r.ReferenceName), q) ||
		strings.Contains(strings.ToLower(r.AbsolutePath), q) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Service) notify() {
	if s.notifier != nil {
		s.notifier.PublishChanged()
	}
}

func indexOf(refs []models.Reference, id string) int {
	return slices.IndexFunc(refs, func(r models.Reference) bool { return r.ID == id })
}
