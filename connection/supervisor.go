package connection

import (
	"log/slog"
	"sync"
)

// Supervisor hands out one live actor per object id. It is a thin registry:
// retry and backoff are entirely the actor's responsibility.
type Supervisor struct {
	logger *slog.Logger

	mu     sync.Mutex
	actors map[string]*Actor
}

// SupervisorEntry is one registry row from List.
type SupervisorEntry struct {
	ObjectID string
	Actor    *Actor
}

// NewSupervisor creates an empty supervisor.
func NewSupervisor(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		logger: logger,
		actors: make(map[string]*Actor),
	}
}

// GetOrCreate returns the live actor for objectID, creating one with cfg if
// none exists. An actor that has stopped since it was registered is replaced.
func (s *Supervisor) GetOrCreate(objectID string, cfg ActorConfig) (*Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.actors[objectID]; ok {
		select {
		case <-a.Done():
			// Stopped out from under us; fall through and replace.
		default:
			return a, nil
		}
	}

	a, err := NewActor(objectID, cfg, s.logger)
	if err != nil {
		return nil, err
	}
	s.actors[objectID] = a

	s.logger.Debug("actor created", "object_id", objectID)
	return a, nil
}

// Get returns the actor for objectID, if registered.
func (s *Supervisor) Get(objectID string) (*Actor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.actors[objectID]
	return a, ok
}

// Stop stops and removes the actor for objectID.
func (s *Supervisor) Stop(objectID string) error {
	s.mu.Lock()
	a, ok := s.actors[objectID]
	if ok {
		delete(s.actors, objectID)
	}
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}

	a.Stop()
	return nil
}

// List returns a snapshot of the registry. No ordering is guaranteed.
func (s *Supervisor) List() []SupervisorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]SupervisorEntry, 0, len(s.actors))
	for id, a := range s.actors {
		entries = append(entries, SupervisorEntry{ObjectID: id, Actor: a})
	}
	return entries
}

// StopAll stops every registered actor and clears the registry.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	actors := make([]*Actor, 0, len(s.actors))
	for _, a := range s.actors {
		actors = append(actors, a)
	}
	s.actors = make(map[string]*Actor)
	s.mu.Unlock()

	for _, a := range actors {
		a.Stop()
	}
}
