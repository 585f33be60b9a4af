// Package session centralizes login and selected-location state. Components
// receive a *Store instead of touching storage directly.
package session

import (
	"database/sql"
	"errors"
	"sync"

	"localfund/internal/db"
	"localfund/internal/model"
)

// ErrLoggedOut is returned when an operation needs a login.
var ErrLoggedOut = errors.New("not logged in")

// Session is the current login.
type Session struct {
	AccessToken string
	Member      model.Member
}

// LoggedIn reports whether a token is present.
func (s Session) LoggedIn() bool {
	return s.AccessToken != ""
}

// Store reads and writes the session through an in-process cache backed by SQLite.
type Store struct {
	db *sql.DB

	mu        sync.RWMutex
	loaded    bool
	current   Session
	location  *model.SelectedLocation
	listeners []func(Session)
}

// NewStore creates a store. A nil database keeps state in memory only.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// Read returns the current session.
func (s *Store) Read() (Session, error) {
	s.mu.RLock()
	if s.loaded {
		cur := s.current
		s.mu.RUnlock()
		return cur, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return Session{}, err
	}
	return s.current, nil
}

func (s *Store) loadLocked() error {
	if s.loaded {
		return nil
	}
	if s.db != nil {
		row, ok, err := db.GetSession(s.db)
		if err != nil {
			return err
		}
		if ok {
			s.current = Session{AccessToken: row.AccessToken, Member: row.Member}
		}
		loc, ok, err := db.GetSelectedLocation(s.db)
		if err != nil {
			return err
		}
		if ok {
			s.location = &loc
		}
	}
	s.loaded = true
	return nil
}

// Write replaces the session.
func (s *Store) Write(sess Session) error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.db != nil {
		if err := db.PutSession(s.db, db.SessionRow{AccessToken: sess.AccessToken, Member: sess.Member}); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.current = sess
	s.loaded = true
	listeners := append([]func(Session){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(sess)
	}
	return nil
}

// Clear logs out. The selected location is kept.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := s.loadLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.db != nil {
		if err := db.DeleteSession(s.db); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.current = Session{}
	s.loaded = true
	listeners := append([]func(Session){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(Session{})
	}
	return nil
}

// UpdateMember replaces the cached profile and keeps the token. Members with
// another email are rejected so a late response cannot overwrite a new login.
func (s *Store) UpdateMember(member model.Member) error {
	sess, err := s.Read()
	if err != nil {
		return err
	}
	if !sess.LoggedIn() || sess.Member.Email != member.Email {
		return ErrLoggedOut
	}
	sess.Member = member
	return s.Write(sess)
}

// Token returns the bearer token, empty when logged out or unreadable.
func (s *Store) Token() string {
	sess, err := s.Read()
	if err != nil {
		return ""
	}
	return sess.AccessToken
}

// Member returns the logged in member and whether there is one.
func (s *Store) Member() (model.Member, bool) {
	sess, err := s.Read()
	if err != nil || !sess.LoggedIn() {
		return model.Member{}, false
	}
	return sess.Member, true
}

// OnChange registers fn to run after every Write or Clear.
func (s *Store) OnChange(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// SelectedLocation returns the selected address, if any.
func (s *Store) SelectedLocation() (model.SelectedLocation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return model.SelectedLocation{}, false, err
	}
	if s.location == nil {
		return model.SelectedLocation{}, false, nil
	}
	return *s.location, true, nil
}

// SetSelectedLocation stores the selected address.
func (s *Store) SetSelectedLocation(loc model.SelectedLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(); err != nil {
		return err
	}
	if s.db != nil {
		if err := db.PutSelectedLocation(s.db, loc); err != nil {
			return err
		}
	}
	s.location = &loc
	return nil
}

// ClearSelectedLocation removes the selected address.
func (s *Store) ClearSelectedLocation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		if err := db.DeleteSelectedLocation(s.db); err != nil {
			return err
		}
	}
	s.location = nil
	return nil
}
