package devserver

import (
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/appsync/internal/shared/id"
	"github.com/GriffinCanCode/appsync/internal/shared/types"
)

// Request is one request the dev server received
type Request struct {
	Method    string
	Path      string
	RequestID string
	Body      []byte
}

// Override replaces the handler's response for every request while set
type Override struct {
	Status int
	Body   string
}

// Store holds the served apps. The most recently created or updated app is
// the "current" entity returned alongside the list.
type Store struct {
	mu       sync.RWMutex
	apps     []types.App
	current  id.AppID
	nextID   int
	override *Override
	requests []Request
}

// NewStore creates a store seeded with apps
func NewStore(seed ...types.App) *Store {
	s := &Store{nextID: 1}
	for _, app := range seed {
		s.apps = append(s.apps, app.Clone())
		if n, err := strconv.Atoi(app.ID.String()); err == nil && n >= s.nextID {
			s.nextID = n + 1
		}
	}
	return s
}

// List returns the apps in insertion order
func (s *Store) List() []types.App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.App, len(s.apps))
	for i, app := range s.apps {
		out[i] = app.Clone()
	}
	return out
}

// Current returns the current entity
func (s *Store) Current() (types.App, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current.IsZero() {
		return types.App{}, false
	}
	i := s.find(s.current)
	if i < 0 {
		return types.App{}, false
	}
	return s.apps[i].Clone(), true
}

// Create assigns an id and uuid to app and stores it
func (s *Store) Create(app types.App) types.App {
	s.mu.Lock()
	defer s.mu.Unlock()

	app = app.Clone()
	app.ID = id.AppID(strconv.Itoa(s.nextID))
	s.nextID++
	if app.UUID == "" {
		app.UUID = uuid.NewString()
	}

	s.apps = append(s.apps, app)
	s.current = app.ID
	return app.Clone()
}

// Update merges app into the stored entity with the same id
func (s *Store) Update(app types.App) (types.App, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(app.ID)
	if i < 0 {
		return types.App{}, false
	}
	s.apps[i].Merge(app)
	s.current = app.ID
	return s.apps[i].Clone(), true
}

// DeleteCurrent removes the current entity
func (s *Store) DeleteCurrent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(s.current)
	if s.current.IsZero() || i < 0 {
		return false
	}
	s.apps = append(s.apps[:i], s.apps[i+1:]...)
	s.current = ""
	return true
}

// SetOverride forces every response to o. Pass nil to restore normal handling.
func (s *Store) SetOverride(o *Override) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = o
}

func (s *Store) overrideResponse() *Override {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.override
}

// Requests returns the requests received so far
func (s *Store) Requests() []Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Store) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

// find returns the index of the app with appID, or -1. Caller holds mu.
func (s *Store) find(appID id.AppID) int {
	for i, app := range s.apps {
		if app.ID == appID {
			return i
		}
	}
	return -1
}
