// Package session tracks who is signed in and notifies a single subscriber
// of changes.
package session

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// namespace for deriving stable user ids from email addresses
var namespace = uuid.MustParse("6f1b8c1e-2f55-4a6e-9a5b-3c1d7e0c9a41")

// ErrEmptyEmail is returned by SignIn without an address
var ErrEmptyEmail = errors.New("session: email is required")

// User is a signed-in account
type User struct {
	UID   string
	Email string
}

// Event is a session change. User is nil on sign-out.
type Event struct {
	User  *User
	Epoch uint64
}

// UIDForEmail derives the stable user id of an email address
func UIDForEmail(email string) string {
	return uuid.NewSHA1(namespace, []byte(strings.ToLower(strings.TrimSpace(email)))).String()
}

// Manager holds the current user
type Manager struct {
	mu      sync.Mutex
	current *User
	epoch   uint64
	sub     chan Event
}

func NewManager() *Manager {
	return &Manager{}
}

// Subscribe returns a channel receiving subsequent changes, starting with
// the current state. A subscriber that falls behind loses older pending
// events but always receives the latest one. Only one subscriber exists at a time: a new
// subscription closes the previous channel. The returned func cancels it.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sub != nil {
		close(m.sub)
	}
	ch := make(chan Event, 8)
	m.sub = ch
	ch <- Event{User: m.user(), Epoch: m.epoch}

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.sub == ch {
			close(ch)
			m.sub = nil
		}
	}
	return ch, cancel
}

// SignIn makes email the current user
func (m *Manager) SignIn(email string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrEmptyEmail
	}
	u := User{UID: UIDForEmail(email), Email: email}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = &u
	m.publish()
	slog.Info("signed in", "email", email, "uid", u.UID)
	return u, nil
}

// SignOut clears the current user
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	slog.Info("signed out", "email", m.current.Email)
	m.current = nil
	m.publish()
}

// Current returns the signed-in user, if any
func (m *Manager) Current() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return User{}, false
	}
	return *m.current, true
}

// Epoch increases on every sign-in or sign-out
func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// publish must be called with mu held
func (m *Manager) publish() {
	m.epoch++
	if m.sub == nil {
		return
	}
	ev := Event{User: m.user(), Epoch: m.epoch}
	for {
		select {
		case m.sub <- ev:
			return
		default:
		}
		// full: discard the oldest pending event so the last one delivered
		// always matches Current
		select {
		case old := <-m.sub:
			slog.Debug("session subscriber is behind, coalescing", "dropped_epoch", old.Epoch, "epoch", ev.Epoch)
		default:
		}
	}
}

// user returns a copy of the current user; mu must be held
func (m *Manager) user() *User {
	if m.current == nil {
		return nil
	}
	u := *m.current
	return &u
}
