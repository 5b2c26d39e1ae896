// Package session resolves the effective Viewer for the active session:
// the logged-in identity, or — while a teacher previews the app as a student
// cohort — a simulated student Viewer layered over the unchanged real identity.
package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/raphco/materia/core/user"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotTeacher       = errors.New("only teachers can simulate a student view")
)

// Simulation is the operator-chosen student cohort a teacher previews as.
// It is session state only; nothing about it is ever persisted.
type Simulation struct {
	Year      int
	Classroom string
}

// Manager holds the authenticated identity plus the optional simulation
// override for one interactive session. The zero value is an anonymous session.
type Manager struct {
	mu     sync.RWMutex
	usrSvc user.Service

	current *user.User
	sim     *Simulation
}

func NewManager(usrSvc user.Service) *Manager {
	return &Manager{usrSvc: usrSvc}
}

// Login authenticates against the identity service. On success the session
// becomes Authenticated-Real; on failure it stays as it was.
func (m *Manager) Login(ctx context.Context, email, password string) (user.User, error) {
	usr, err := m.usrSvc.Authenticate(ctx, email, password)
	if err != nil {
		return user.User{}, err
	}
	if usr, err = m.usrSvc.SetLastLogin(ctx, usr); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}

	m.mu.Lock()
	m.current = &usr
	m.sim = nil
	m.mu.Unlock()
	return usr, nil
}

// Logout drops the session back to anonymous, clearing any simulation.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.current = nil
	m.sim = nil
	m.mu.Unlock()
}

// StartSimulation coerces the effective Viewer to a student of the given
// cohort. Only an authenticated teacher may simulate; the real identity is
// retained unchanged underneath.
func (m *Manager) StartSimulation(year int, classroom string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ErrNotAuthenticated
	}
	if !m.current.IsTeacher() {
		return ErrNotTeacher
	}
	m.sim = &Simulation{Year: year, Classroom: classroom}
	return nil
}

// EndSimulation restores the real Viewer. A no-op when not simulating.
func (m *Manager) EndSimulation() {
	m.mu.Lock()
	m.sim = nil
	m.mu.Unlock()
}

// Authenticated reports whether a user is logged in.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// Simulating reports whether a simulation override is active.
func (m *Manager) Simulating() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sim != nil
}

// CurrentUser returns the real logged-in identity, untouched by simulation.
func (m *Manager) CurrentUser() (user.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return user.User{}, false
	}
	return *m.current, true
}

// Viewer computes the single effective Viewer used by every read path.
func (m *Manager) Viewer() user.Viewer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return user.Viewer{}
	}
	if m.sim != nil {
		return user.Viewer{Role: user.RoleStudent, Year: m.sim.Year, Classroom: m.sim.Classroom}
	}
	return m.current.Viewer()
}

// IsTeacherView gates the mutation affordances of the presentation layer:
// true only for an authenticated teacher who is not simulating.
func (m *Manager) IsTeacherView() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil && m.current.IsTeacher() && m.sim == nil
}
