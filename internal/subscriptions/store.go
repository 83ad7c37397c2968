// Package subscriptions owns the canonical, ordered list of subscription
// records and mirrors it to durable key-value storage.
//
// The store is constructed once and passed to every consumer. Load must be
// called before use. Every successful mutation writes the full list exactly
// once; a failed mutation writes nothing and leaves the in-memory list as it
// was.
package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

// DefaultKey is the storage key the list is persisted under.
const DefaultKey = "subscriptions"

const maxIDAttempts = 8

var errIDExhausted = errors.New("could not generate a unique id")

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentSubscriptions) }
}

// WithIDGenerator replaces the UUID v4 generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

type Store struct {
	mu     sync.RWMutex
	kv     storage.KV
	key    string
	newID  func() string
	logger *log.Logger
	items  []core.Subscription
}

func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		key:    DefaultKey,
		newID:  uuid.NewString,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentSubscriptions),
		items:  []core.Subscription{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A missing key
// yields an empty list. Undecodable data is logged, removed from storage and
// also yields an empty list. Only storage read failures are returned.
func (s *Store) Load(ctx context.Context) error {
	const op = "subscriptions.Load"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		s.items = []core.Subscription{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var items []core.Subscription
	if err := json.Unmarshal(data, &items); err != nil {
		s.discardCorrupt(ctx, &core.CorruptDataError{Key: s.key, Err: err})
		s.items = []core.Subscription{}
		return nil
	}

	s.items = s.dedupe(ctx, items)
	s.logger.DebugContext(ctx, "Subscriptions loaded", log.FieldCount, len(s.items), log.FieldKey, s.key)
	return nil
}

func (s *Store) discardCorrupt(ctx context.Context, corrupt *core.CorruptDataError) {
	s.logger.ErrorContext(ctx, "Discarding corrupt persisted subscriptions",
		log.FieldKey, corrupt.Key,
		log.FieldError, corrupt.Error(),
		log.FieldErrorType, log.ErrorTypeCorruption)

	if err := s.kv.Delete(ctx, s.key); err != nil {
		s.logger.WarnContext(ctx, "Failed to remove corrupt subscriptions",
			log.FieldKey, s.key, log.FieldError, err)
	}
}

// dedupe keeps the first record for every id.
func (s *Store) dedupe(ctx context.Context, items []core.Subscription) []core.Subscription {
	out := make([]core.Subscription, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			s.logger.WarnContext(ctx, "Dropping duplicate subscription id", log.FieldSubID, it.ID)
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// List returns a copy of the current list, most recent first.
func (s *Store) List() []core.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Subscription{}, s.items...)
}

// Get returns the record with id or a *core.NotFoundError.
func (s *Store) Get(id string) (core.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return core.Subscription{}, &core.NotFoundError{ID: id}
	}
	return s.items[idx], nil
}

// Create validates in, assigns a fresh id and prepends the record.
func (s *Store) Create(ctx context.Context, in core.CreateInput) (core.Subscription, error) {
	const op = "subscriptions.Create"

	sub, err := in.Parse()
	if err != nil {
		return core.Subscription{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.uniqueID()
	if err != nil {
		return core.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	sub.ID = id

	next := make([]core.Subscription, 0, len(s.items)+1)
	next = append(next, sub)
	next = append(next, s.items...)

	if err := s.persist(ctx, next); err != nil {
		return core.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	s.items = next
	return sub, nil
}

// Update merges the set fields of in onto the record with id.
func (s *Store) Update(ctx context.Context, id string, in core.UpdateInput) (core.Subscription, error) {
	const op = "subscriptions.Update"

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Subscription{}, &core.NotFoundError{ID: id}
	}
	updated, err := in.Apply(s.items[idx])
	if err != nil {
		return core.Subscription{}, err
	}

	next := slices.Clone(s.items)
	next[idx] = updated

	if err := s.persist(ctx, next); err != nil {
		return core.Subscription{}, fmt.Errorf("%s: %w", op, err)
	}
	s.items = next
	return updated, nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "subscriptions.Delete"

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return &core.NotFoundError{ID: id}
	}
	next := slices.Delete(slices.Clone(s.items), idx, idx+1)

	if err := s.persist(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.items = next
	return nil
}

// Clear empties the list and removes the persisted key.
func (s *Store) Clear(ctx context.Context) error {
	const op = "subscriptions.Clear"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.items = []core.Subscription{}
	return nil
}

func (s *Store) persist(ctx context.Context, items []core.Subscription) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode subscriptions: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write subscriptions: %w", err)
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(it core.Subscription) bool { return it.ID == id })
}

func (s *Store) uniqueID() (string, error) {
	for range maxIDAttempts {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", errIDExhausted
}
