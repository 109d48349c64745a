package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"jobtracker/internal/logger"
)

var ErrNoSession = errors.New("no saved linkedin session")

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type sessionFile struct {
	Username string        `json:"username"`
	SavedAt  time.Time     `json:"saved_at"`
	Cookies  []savedCookie `json:"cookies"`
}

// SessionStore keeps the cookies of a logged-in client on disk so later runs
// can skip the login form.
type SessionStore struct {
	path string
	lock *flock.Flock
}

func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path, lock: flock.New(path + ".lock")}
}

func (s *SessionStore) Path() string { return s.path }

// Load returns the cookies saved for username. A missing file or a session
// saved for a different user yields ErrNoSession.
func (s *SessionStore) Load(username string) ([]*http.Cookie, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	if err := s.lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock session file: %w", err)
	}
	defer s.lock.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	if !strings.EqualFold(sf.Username, strings.TrimSpace(username)) || len(sf.Cookies) == 0 {
		return nil, ErrNoSession
	}

	out := make([]*http.Cookie, 0, len(sf.Cookies))
	for _, c := range sf.Cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out, nil
}

// Save replaces the session file with cookies. The file is readable by the
// owner only.
func (s *SessionStore) Save(username string, cookies []*http.Cookie) error {
	sf := sessionFile{Username: strings.TrimSpace(username), SavedAt: time.Now().UTC()}
	for _, c := range cookies {
		sf.Cookies = append(sf.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}
	b, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	defer s.lock.Unlock()

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Clear removes the saved session.
func (s *SessionStore) Clear() error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock session file: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Connect returns a client signed in as username, reusing the saved session
// when a profile request still accepts it. store may be nil.
func Connect(ctx context.Context, c *Client, store *SessionStore, username, password string) (*Client, error) {
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "linkedin")

	if store != nil {
		cookies, err := store.Load(username)
		switch {
		case err == nil:
			c.WithCookies(cookies)
			_, perr := c.GetProfile(ctx, "me")
			if perr == nil {
				log.Debug("reusing saved linkedin session")
				return c, nil
			}
			log.WithError(perr).Warn("saved session expired or corrupted, logging in again")
		case errors.Is(err, ErrNoSession):
		default:
			log.WithError(err).Warn("saved session expired or corrupted, logging in again")
		}
	}

	if err := c.Login(ctx, username, password); err != nil {
		return nil, err
	}
	log.Info("logged in to linkedin")

	if store != nil {
		if err := store.Save(username, c.Cookies()); err != nil {
			log.WithError(err).Warn("could not save linkedin session")
		}
	}
	return c, nil
}
