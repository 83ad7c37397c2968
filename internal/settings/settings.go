// Package settings persists the single user profile under its own key, with
// the same load-on-start and write-on-change discipline as the subscription
// store.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"subtrack/internal/core"
	"subtrack/internal/log"
	"subtrack/internal/storage"
)

const DefaultKey = "userSettings"

type Settings struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	Notifications bool   `json:"notifications"`
}

// Defaults are used until something is saved.
func Defaults() Settings {
	return Settings{Notifications: true}
}

// Input is the profile form. Username and email are trimmed before use and at
// least one of them must be non-empty.
type Input struct {
	Username      string `json:"username" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email,max=254"`
	Notifications bool   `json:"notifications"`
}

func (in Input) normalize() Settings {
	return Settings{
		Username:      strings.TrimSpace(in.Username),
		Email:         strings.TrimSpace(in.Email),
		Notifications: in.Notifications,
	}
}

type Store struct {
	mu      sync.RWMutex
	kv      storage.KV
	logger  *log.Logger
	current Settings
}

func New(kv storage.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{
		kv:      kv,
		logger:  logger.WithComponent(log.ComponentSettings),
		current: Defaults(),
	}
}

// Load reads the persisted settings. Missing or undecodable data yields the
// defaults; undecodable data is also removed.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, DefaultKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		s.current = Defaults()
		return nil
	}
	if err != nil {
		return fmt.Errorf("settings.Load: %w", err)
	}

	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		corrupt := &core.CorruptDataError{Key: DefaultKey, Err: err}
		s.logger.ErrorContext(ctx, "Discarding corrupt persisted settings",
			log.FieldKey, DefaultKey, log.FieldError, corrupt.Error(), log.FieldErrorType, log.ErrorTypeCorruption)
		if err := s.kv.Delete(ctx, DefaultKey); err != nil {
			s.logger.WarnContext(ctx, "Failed to remove corrupt settings", log.FieldError, err)
		}
		s.current = Defaults()
		return nil
	}
	s.current = loaded
	return nil
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Save validates and stores in. It reports changed=false, and writes
// nothing, when the trimmed input equals the current settings.
func (s *Store) Save(ctx context.Context, in Input) (Settings, bool, error) {
	next := in.normalize()
	if next.Username == "" && next.Email == "" {
		return Settings{}, false, &core.ValidationError{Field: "username", Reason: core.ReasonMissing}
	}
	if err := core.ValidateStruct(Input{Username: next.Username, Email: next.Email}); err != nil {
		return Settings{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if next == s.current {
		return next, false, nil
	}
	if err := s.persist(ctx, next); err != nil {
		return Settings{}, false, fmt.Errorf("settings.Save: %w", err)
	}
	s.current = next
	s.logger.InfoContext(ctx, "Settings saved", log.FieldOperation, log.OpSave)
	return next, true, nil
}

// SetNotifications toggles notifications alone. Unlike Save it does not
// require a username or email.
func (s *Store) SetNotifications(ctx context.Context, enabled bool) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Notifications == enabled {
		return s.current, nil
	}
	next := s.current
	next.Notifications = enabled
	if err := s.persist(ctx, next); err != nil {
		return Settings{}, fmt.Errorf("settings.SetNotifications: %w", err)
	}
	s.current = next
	return next, nil
}

// Reset removes the persisted settings and restores the defaults.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, DefaultKey); err != nil {
		return fmt.Errorf("settings.Reset: %w", err)
	}
	s.current = Defaults()
	return nil
}

func (s *Store) persist(ctx context.Context, v Settings) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, DefaultKey, data)
}
