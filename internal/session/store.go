// Package session holds the signed-in state of the console. The state is
// persisted as YAML in the data directory so that the CLI, the MCP server
// and a running console share one sign-in.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/brandoo"
	"github.com/brandoo/console/internal/checksum"
	"github.com/brandoo/console/internal/models"
	"github.com/brandoo/console/internal/storage"
)

// FileName is the session file inside the data directory.
const FileName = "session.yaml"

// State is the persisted session.
type State struct {
	Token      string       `yaml:"token,omitempty" json:"-"`
	PrivateKey string       `yaml:"private_key,omitempty" json:"-"`
	ExpiresAt  time.Time    `yaml:"expires_at,omitempty" json:"expiresAt,omitempty"`
	User       *models.User `yaml:"user,omitempty" json:"user,omitempty"`
	DevMode    bool         `yaml:"dev_mode" json:"devMode"`
}

// Active reports whether the state holds a usable token at now.
func (s State) Active(now time.Time) bool {
	if s.Token == "" || s.User == nil {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Authenticator exchanges e-mail and password for credentials.
type Authenticator interface {
	SignIn(ctx context.Context, in models.SignInRequest) (models.SignInResponse, error)
}

// UserUpdater stores the public contact block of a user.
type UserUpdater interface {
	UpdateUser(ctx context.Context, id string, info models.UserFormInfo) error
}

// Store is the application state object. It is safe for concurrent use.
type Store struct {
	fs     storage.Provider
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	state    State
	sum      string
	onChange func(State)
}

// NewStore returns an empty store persisting to fs. Call Hydrate to load
// the saved session.
func NewStore(fs storage.Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{fs: fs, logger: logger, now: time.Now}
}

// OnChange registers fn to be called after the state is replaced by a
// change of the session file made by another process.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Credentials implements brandoo.CredentialSource.
func (s *Store) Credentials() (brandoo.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.Active(s.now()) {
		return brandoo.Credentials{}, apperr.ErrNoSession
	}
	return brandoo.Credentials{
		Token:      s.state.Token,
		PrivateKey: s.state.PrivateKey,
		UserID:     s.state.User.ID,
	}, nil
}

// Hydrate loads the session file. A missing file leaves the store signed
// out; an expired session is cleared and its file removed.
func (s *Store) Hydrate() error {
	data, err := s.fs.Read(FileName)
	if errors.Is(err, apperr.ErrNotFound) {
		s.mu.Lock()
		s.state, s.sum = State{}, ""
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: hydrate: %w", err)
	}
	var st State
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("session: decode %s: %w", FileName, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sum = checksum.Sum(data)
	if st.Token != "" && !st.Active(s.now()) {
		s.logger.Info("session: expired, clearing", slog.Time("expires_at", st.ExpiresAt))
		s.state = State{DevMode: st.DevMode}
		return s.persistLocked()
	}
	s.state = st
	s.logger.Debug("session: hydrated", slog.Bool("signed_in", st.Token != ""))
	return nil
}

// SignIn authenticates against the backend and persists the session.
func (s *Store) SignIn(ctx context.Context, auth Authenticator, email, password string) (models.User, error) {
	resp, err := auth.SignIn(ctx, models.SignInRequest{Email: email, Password: password})
	if err != nil {
		return models.User{}, fmt.Errorf("session: sign in: %w", err)
	}
	tok := resp.Security.Token
	if tok.AuthToken == "" {
		return models.User{}, fmt.Errorf("session: sign in: empty token: %w", apperr.ErrUnauthorized)
	}
	var expires time.Time
	if tok.ExpiresAt != "" {
		expires, err = time.Parse(time.RFC3339Nano, tok.ExpiresAt)
		if err != nil {
			s.logger.Warn("session: unparseable expiry, treating as open", slog.String("expires_at", tok.ExpiresAt))
			expires = time.Time{}
		}
	}
	user := resp.User
	if user.ID == "" {
		user.ID = tok.UserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{
		Token:      tok.AuthToken,
		PrivateKey: resp.Security.PrivateKey,
		ExpiresAt:  expires,
		User:       &user,
		DevMode:    s.state.DevMode,
	}
	if err := s.persistLocked(); err != nil {
		return models.User{}, err
	}
	s.logger.Info("session: signed in", slog.String("user_id", user.ID))
	return user, nil
}

// SignOut clears the credentials and removes the session file.
func (s *Store) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	s.sum = ""
	if err := s.fs.Delete(FileName); err != nil {
		return fmt.Errorf("session: sign out: %w", err)
	}
	s.logger.Info("session: signed out")
	return nil
}

// ToggleDevMode flips the developer mode flag and returns the new value.
func (s *Store) ToggleDevMode() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DevMode = !s.state.DevMode
	if err := s.persistLocked(); err != nil {
		return !s.state.DevMode, err
	}
	return s.state.DevMode, nil
}

// SetUserFormInfo stores the public contact block on the backend and
// merges it into the signed-in user.
func (s *Store) SetUserFormInfo(ctx context.Context, up UserUpdater, info models.UserFormInfo) (models.User, error) {
	s.mu.RLock()
	user := s.state.User
	s.mu.RUnlock()
	if user == nil {
		return models.User{}, apperr.ErrNoSession
	}
	if err := up.UpdateUser(ctx, user.ID, info); err != nil {
		return models.User{}, fmt.Errorf("session: update user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil || s.state.User.ID != user.ID {
		return models.User{}, apperr.ErrNoSession
	}
	u := *s.state.User
	u.ContactEmail = info.ContactEmail
	u.ContactPhone = info.ContactPhone
	u.RegistrationNo = info.RegistrationNo
	s.state.User = &u
	if err := s.persistLocked(); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) persistLocked() error {
	data, err := yaml.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.fs.Write(FileName, data); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	s.sum = checksum.Sum(data)
	return nil
}
