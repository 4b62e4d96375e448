package connection

import (
	"errors"
	"testing"
	"time"
)

func TestSupervisor_GetOrCreate(t *testing.T) {
	f := newFakeFactory()
	s := NewSupervisor(nil)
	defer s.StopAll()

	a1, err := s.GetOrCreate("obj-1", testActorConfig(f))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	a2, err := s.GetOrCreate("obj-1", testActorConfig(f))
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if a1 != a2 {
		t.Error("expected the same actor for the same object id")
	}

	b, err := s.GetOrCreate("obj-2", testActorConfig(f))
	if err != nil {
		t.Fatalf("GetOrCreate obj-2 failed: %v", err)
	}
	if b == a1 {
		t.Error("expected a distinct actor per object id")
	}
}

func TestSupervisor_GetOrCreate_InvalidConfig(t *testing.T) {
	s := NewSupervisor(nil)
	defer s.StopAll()

	if _, err := s.GetOrCreate("obj-1", ActorConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	if len(s.List()) != 0 {
		t.Error("failed create must not register an actor")
	}
}

func TestSupervisor_ReplacesStoppedActor(t *testing.T) {
	f := newFakeFactory()
	s := NewSupervisor(nil)
	defer s.StopAll()

	a1, err := s.GetOrCreate("obj-1", testActorConfig(f))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Stopped directly, without going through the supervisor.
	a1.Stop()

	a2, err := s.GetOrCreate("obj-1", testActorConfig(f))
	if err != nil {
		t.Fatalf("GetOrCreate after stop failed: %v", err)
	}
	if a1 == a2 {
		t.Error("expected a fresh actor after the old one stopped")
	}
}

func TestSupervisor_Stop(t *testing.T) {
	f := newFakeFactory()
	s := NewSupervisor(nil)

	a, err := s.GetOrCreate("obj-1", testActorConfig(f))
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if err := s.Stop("obj-1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	select {
	case <-a.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("actor not stopped")
	}

	if err := s.Stop("obj-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Stop = %v, want ErrNotFound", err)
	}
	if err := s.Stop("never-created"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stop unknown = %v, want ErrNotFound", err)
	}
}

func TestSupervisor_List(t *testing.T) {
	f := newFakeFactory()
	s := NewSupervisor(nil)
	defer s.StopAll()

	ids := []string{"obj-1", "obj-2", "obj-3"}
	for _, id := range ids {
		if _, err := s.GetOrCreate(id, testActorConfig(f)); err != nil {
			t.Fatalf("GetOrCreate %s failed: %v", id, err)
		}
	}

	entries := s.List()
	if len(entries) != len(ids) {
		t.Fatalf("List returned %d entries, want %d", len(entries), len(ids))
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.Actor == nil {
			t.Errorf("entry %s has nil actor", e.ObjectID)
		}
		if e.Actor.ObjectID() != e.ObjectID {
			t.Errorf("entry id %s != actor id %s", e.ObjectID, e.Actor.ObjectID())
		}
		seen[e.ObjectID] = true
	}
	for _, id := range ids {
		if !seen[id] {
			t.Errorf("List missing %s", id)
		}
	}
}

func TestSupervisor_StopAll(t *testing.T) {
	f := newFakeFactory()
	s := NewSupervisor(nil)

	var actors []*Actor
	for _, id := range []string{"obj-1", "obj-2"} {
		a, err := s.GetOrCreate(id, testActorConfig(f))
		if err != nil {
			t.Fatalf("GetOrCreate failed: %v", err)
		}
		actors = append(actors, a)
	}

	s.StopAll()

	for _, a := range actors {
		select {
		case <-a.Done():
		case <-time.After(2 * time.Second):
			t.Fatalf("actor %s not stopped", a.ObjectID())
		}
	}
	if len(s.List()) != 0 {
		t.Error("registry not empty after StopAll")
	}
}
