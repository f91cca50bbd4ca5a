// Package session holds the current authentication token and user profile,
// persisted across process restarts. Consumers read the token synchronously
// at call time; there is no push notification on change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leon-morival/cynaMobile/internal/domain"
	"github.com/leon-morival/cynaMobile/internal/storage"
)

// ProfileFetcher is the slice of the backend client the store needs to
// recover a missing user profile.
type ProfileFetcher interface {
	Me(ctx context.Context, token string) (*domain.User, error)
}

type Store struct {
	mu      sync.RWMutex
	token   *string
	user    *domain.User
	kv      storage.Store
	backend ProfileFetcher
	log     *slog.Logger
}

func NewStore(kv storage.Store, backend ProfileFetcher, log *slog.Logger) *Store {
	return &Store{kv: kv, backend: backend, log: log}
}

// Load restores the persisted session. If a token exists but no user profile
// was persisted, the current profile is fetched from the backend; on fetch
// failure the user stays nil and any persisted profile is cleared so a stale
// or wrong profile is never shown. Call from a goroutine at startup; the
// profile may lag the token and consumers must treat that as "loading", not
// "logged out".
func (s *Store) Load(ctx context.Context) error {
	raw, err := s.kv.Get(ctx, storage.KeyToken)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	token := string(raw)

	s.mu.Lock()
	s.token = &token
	s.mu.Unlock()

	if user, found := s.loadPersistedUser(ctx); found {
		s.mu.Lock()
		s.user = user
		s.mu.Unlock()
		return nil
	}

	return s.recoverProfile(ctx, token)
}

func (s *Store) loadPersistedUser(ctx context.Context) (*domain.User, bool) {
	raw, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Error("load persisted user", slog.Any("error", err))
		}
		return nil, false
	}
	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		s.log.Error("corrupt persisted user, discarding", slog.Any("error", err))
		return nil, false
	}
	return &user, true
}

func (s *Store) recoverProfile(ctx context.Context, token string) error {
	user, err := s.backend.Me(ctx, token)
	if err != nil {
		s.log.Warn("profile fetch failed, clearing persisted user", slog.Any("error", err))
		if delErr := s.kv.Delete(ctx, storage.KeyUser); delErr != nil {
			s.log.Error("clear persisted user", slog.Any("error", delErr))
		}
		return err
	}
	return s.SetUser(ctx, user)
}

func (s *Store) Token() *string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Store) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Session{Token: s.token, User: s.user}
}

// SetToken persists the token. A nil token clears the cached and persisted
// user as well: a session without a token must never keep a profile around.
func (s *Store) SetToken(ctx context.Context, token *string) error {
	if token == nil {
		s.mu.Lock()
		s.token = nil
		s.user = nil
		s.mu.Unlock()
		if err := s.kv.Delete(ctx, storage.KeyToken); err != nil {
			return fmt.Errorf("clear token: %w", err)
		}
		if err := s.kv.Delete(ctx, storage.KeyUser); err != nil {
			return fmt.Errorf("clear user: %w", err)
		}
		return nil
	}

	if err := s.kv.Set(ctx, storage.KeyToken, []byte(*token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

func (s *Store) SetUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		if err := s.kv.Delete(ctx, storage.KeyUser); err != nil {
			return fmt.Errorf("clear user: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyUser, raw); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return nil
}
