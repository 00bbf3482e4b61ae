// Package memstore is an in-process store.Provider used for local demos and as
// the storage double in tests. It does not enforce foreign keys.
package memstore

import (
	"context"
	"strconv"
	"sync"
	"time"

	"vdt.ai/dashboard/internal/model"
	"vdt.ai/dashboard/internal/store"
)

type Store struct {
	mu            sync.RWMutex
	seq           int64
	projects      []model.Project
	organizations []model.Organization
	users         map[string]model.User
	sessions      map[string]model.Session
	now           func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		sessions: make(map[string]model.Session),
		now:      time.Now,
	}
}

func (s *Store) Projects() store.ProjectStore           { return projectStore{s} }
func (s *Store) Organizations() store.OrganizationStore { return organizationStore{s} }
func (s *Store) Users() store.UserStore                 { return userStore{s} }
func (s *Store) Sessions() store.SessionStore           { return sessionStore{s} }

// WithTx runs fn against the same store. There is no rollback.
func (s *Store) WithTx(_ context.Context, fn func(stores store.Provider) error) error {
	return fn(s)
}

// Records cross the store boundary by value. Pointer fields are copied so
// neither the caller's input nor a returned record aliases stored state.
func cloneProject(p model.Project) model.Project {
	p.Description = clonePtr(p.Description)
	p.CreatedBy = clonePtr(p.CreatedBy)
	p.CreatedAt = clonePtr(p.CreatedAt)
	p.UpdatedAt = clonePtr(p.UpdatedAt)
	return p
}

func cloneUser(u model.User) model.User {
	u.Name = clonePtr(u.Name)
	u.Role = clonePtr(u.Role)
	u.WorkOSID = clonePtr(u.WorkOSID)
	u.CreatedAt = clonePtr(u.CreatedAt)
	u.UpdatedAt = clonePtr(u.UpdatedAt)
	return u
}

func cloneSession(ss model.Session) model.Session {
	ss.WorkOSSessionID = clonePtr(ss.WorkOSSessionID)
	return ss
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// nextID must be called with mu held for writing.
func (s *Store) nextID() string {
	s.seq++
	return strconv.FormatInt(s.seq, 10)
}

type projectStore struct{ s *Store }

func (p projectStore) List(_ context.Context) ([]model.Project, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := make([]model.Project, 0, len(p.s.projects))
	for _, project := range p.s.projects {
		out = append(out, cloneProject(project))
	}
	return out, nil
}

func (p projectStore) Create(_ context.Context, project *model.Project) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	now := p.s.now()
	project.ID = p.s.nextID()
	project.CreatedAt = &now
	project.UpdatedAt = clonePtr(&now)
	p.s.projects = append(p.s.projects, cloneProject(*project))
	*project = cloneProject(*project)
	return nil
}

type organizationStore struct{ s *Store }

func (o organizationStore) GetBySlug(_ context.Context, slug string) (*model.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	for _, org := range o.s.organizations {
		if org.Slug == slug {
			found := org
			return &found, nil
		}
	}
	return nil, store.ErrNotFound
}

func (o organizationStore) Create(_ context.Context, org *model.Organization) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	if org.ID == "" {
		org.ID = o.s.nextID()
	}
	now := o.s.now()
	org.CreatedAt = now
	org.UpdatedAt = now
	o.s.organizations = append(o.s.organizations, *org)
	return nil
}

type userStore struct{ s *Store }

func (u userStore) GetByID(_ context.Context, id string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	user = cloneUser(user)
	return &user, nil
}

func (u userStore) UpsertByWorkOSID(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	now := u.s.now()
	if user.WorkOSID != nil {
		for existingID, existing := range u.s.users {
			if existing.WorkOSID != nil && *existing.WorkOSID == *user.WorkOSID {
				existing.Email = user.Email
				existing.Name = user.Name
				existing.UpdatedAt = &now
				u.s.users[existingID] = existing
				*user = existing
				return nil
			}
		}
	}

	if user.ID == "" {
		user.ID = u.s.nextID()
	}
	if user.Role == nil {
		role := model.UserRoleUser
		user.Role = &role
	}
	user.CreatedAt = &now
	user.UpdatedAt = clonePtr(&now)
	u.s.users[user.ID] = cloneUser(*user)
	*user = cloneUser(*user)
	return nil
}

type sessionStore struct{ s *Store }

func (ss sessionStore) GetByID(_ context.Context, id string) (*model.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	session, ok := ss.s.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	session = cloneSession(session)
	return &session, nil
}

func (ss sessionStore) GetValid(_ context.Context, id string) (*model.Session, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	session, ok := ss.s.sessions[id]
	if !ok || !session.ExpiresAt.After(ss.s.now()) {
		return nil, store.ErrNotFound
	}
	session = cloneSession(session)
	return &session, nil
}

func (ss sessionStore) Create(_ context.Context, session *model.Session) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if session.ID == "" {
		session.ID = ss.s.nextID()
	}
	session.CreatedAt = ss.s.now()
	ss.s.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (ss sessionStore) Delete(_ context.Context, id string) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	delete(ss.s.sessions, id)
	return nil
}

func (ss sessionStore) DeleteExpired(_ context.Context) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	now := ss.s.now()
	for id, session := range ss.s.sessions {
		if !session.ExpiresAt.After(now) {
			delete(ss.s.sessions, id)
		}
	}
	return nil
}
