package inbox

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// ErrNotFound marks updates or deletes referencing an unknown item id.
var ErrNotFound = errors.New("inbox item not found")

const (
	// DefaultMaxItems bounds the whole inbox; the oldest items by
	// createdAt are evicted first.
	DefaultMaxItems = 500
	// DefaultMaxContentLength caps stored content, in runes.
	DefaultMaxContentLength = 20000
)

// Backend is the persistence collaborator: a keyed collection with
// load-all and atomic save-all (replace) semantics. There is no
// cross-process coordination: concurrent instances against the same
// backend are last-writer-wins, accepted for single-operator use.
type Backend interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Publisher receives item lifecycle events. A nil Publisher is a no-op.
type Publisher interface {
	Publish(subject string, data any) error
}

// Event subjects emitted by the service.
const (
	SubjectItemCreated = "harbor.inbox.item.created"
	SubjectItemUpdated = "harbor.inbox.item.updated"
	SubjectItemDeleted = "harbor.inbox.item.deleted"
)

// Update is a partial (PATCH-style) mutation of one item. Nil fields are
// left untouched. Action appends an auxiliary history entry regardless of
// whether the status changed.
type Update struct {
	Title   *string
	Content *string
	URL     *string
	Author  *string
	Tags    *[]string
	Status  *Status
	Action  *Action
}

// Action is an auxiliary audit event carried on an update.
type Action struct {
	Type EntryType
	Note string
}

// Service is the in-memory authoritative item store. In-memory mutations
// are atomic under the mutex; persistence runs behind a single-writer
// queue so saves hit the backend strictly in submission order. Save
// failures are logged and never surfaced: the in-memory state stays
// authoritative for the lifetime of the process.
type Service struct {
	mu         sync.Mutex
	items      map[string]*Item
	loaded     bool
	backend    Backend
	events     Publisher
	logger     *slog.Logger
	maxItems   int
	maxContent int

	saveCh    chan []Item
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithLimits overrides the item count and content length bounds.
func WithLimits(maxItems, maxContent int) Option {
	return func(s *Service) {
		if maxItems > 0 {
			s.maxItems = maxItems
		}
		if maxContent > 0 {
			s.maxContent = maxContent
		}
	}
}

// WithPublisher attaches a lifecycle event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// NewService creates the inbox service. The backend is loaded lazily on
// first use; load failures degrade to an empty store.
func NewService(backend Backend, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		items:      make(map[string]*Item),
		backend:    backend,
		logger:     logger,
		maxItems:   DefaultMaxItems,
		maxContent: DefaultMaxContentLength,
		saveCh:     make(chan []Item, 16),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.persistLoop()
	return s
}

// Close drains the persistence queue. Safe to call more than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.saveCh) })
	<-s.done
}

func (s *Service) persistLoop() {
	defer close(s.done)
	for snapshot := range s.saveCh {
		if err := s.backend.Save(context.Background(), snapshot); err != nil {
			// Best-effort durability: the operation already succeeded
			// against the in-memory state.
			s.logger.Warn("inbox persistence failed", "items", len(snapshot), "error", err)
		}
	}
}

// ensureLoaded performs the lazy one-time load. Callers must hold s.mu.
func (s *Service) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	items, err := s.backend.Load(ctx)
	if err != nil {
		s.logger.Warn("inbox load failed, starting empty", "error", err)
		return
	}
	for i := range items {
		item := items[i]
		s.items[item.ID] = &item
	}
	s.logger.Info("inbox loaded", "items", len(s.items))
}

// List returns items sorted by createdAt descending, optionally filtered
// by status (nil = all).
func (s *Service) List(ctx context.Context, status *Status) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	out := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if status != nil && item.Status != *status {
			continue
		}
		out = append(out, item.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Get fetches items by id; unknown ids are silently skipped.
func (s *Service) Get(ctx context.Context, ids []string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	out := make([]Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item.clone())
		}
	}
	return out
}

// Find returns one item by id, or ErrNotFound.
func (s *Service) Find(ctx context.Context, id string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := item.clone()
	return &c, nil
}

// Create stores a new item, applying the content cap and eviction rules.
func (s *Service) Create(ctx context.Context, item *Item) Item {
	s.mu.Lock()
	s.ensureLoaded(ctx)

	item.Content = capContent(item.Content, s.maxContent)
	s.items[item.ID] = item
	s.evictLocked()
	out := item.clone()
	s.enqueueSaveLocked()
	s.mu.Unlock()

	s.publish(SubjectItemCreated, out)
	return out
}

// Apply mutates one item in place. Unknown ids yield ErrNotFound.
func (s *Service) Apply(ctx context.Context, id string, upd Update) (*Item, error) {
	s.mu.Lock()
	s.ensureLoaded(ctx)

	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	if upd.Title != nil {
		item.Title = *upd.Title
	}
	if upd.Content != nil {
		item.Content = capContent(*upd.Content, s.maxContent)
	}
	if upd.URL != nil {
		item.URL = *upd.URL
	}
	if upd.Author != nil {
		item.Author = *upd.Author
	}
	if upd.Tags != nil {
		item.Tags = append([]string(nil), (*upd.Tags)...)
	}
	if upd.Status != nil {
		item.SetStatus(*upd.Status)
	}
	if upd.Action != nil {
		item.AddAction(upd.Action.Type, upd.Action.Note)
	}
	item.UpdatedAt = nowUTC()

	s.evictLocked()
	out := item.clone()
	s.enqueueSaveLocked()
	s.mu.Unlock()

	s.publish(SubjectItemUpdated, out)
	return &out, nil
}

// Delete removes one item; ErrNotFound when the id is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	s.ensureLoaded(ctx)

	if _, ok := s.items[id]; !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.items, id)
	s.evictLocked()
	s.enqueueSaveLocked()
	s.mu.Unlock()

	s.publish(SubjectItemDeleted, map[string]string{"id": id})
	return nil
}

// evictLocked trims the set to maxItems, oldest by createdAt evicted
// first. Callers must hold s.mu.
func (s *Service) evictLocked() {
	excess := len(s.items) - s.maxItems
	if excess <= 0 {
		return
	}
	all := make([]*Item, 0, len(s.items))
	for _, item := range s.items {
		all = append(all, item)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	for _, item := range all[:excess] {
		delete(s.items, item.ID)
	}
}

// enqueueSaveLocked snapshots the current set onto the write queue.
// Callers must hold s.mu.
func (s *Service) enqueueSaveLocked() {
	snapshot := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		snapshot = append(snapshot, item.clone())
	}
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].CreatedAt.Before(snapshot[j].CreatedAt) })
	s.saveCh <- snapshot
}

func (s *Service) publish(subject string, data any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}

func capContent(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
