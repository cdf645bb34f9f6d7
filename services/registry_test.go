package services

import (
	"testing"
)

func testService(id string) *Service {
	return &Service{
		ID:          id,
		Name:        id,
		Description: "test service",
		Version:     "1.0.0",
		Actions: []ActionDefinition{
			{ID: "ping", Name: "Ping"},
		},
		Reactions: []ReactionDefinition{
			{ID: "pong", Name: "Pong"},
		},
	}
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(testService("alpha")); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := r.Register(testService("alpha")); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestRegisterRejectsInvalidModules(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(nil); err == nil {
		t.Fatal("expected nil module to be rejected")
	}

	svc := testService("")
	if err := r.Register(svc); err == nil {
		t.Fatal("expected empty id to be rejected")
	}

	svc = testService("beta")
	svc.Actions = append(svc.Actions, ActionDefinition{ID: "ping"})
	if err := r.Register(svc); err == nil {
		t.Fatal("expected duplicate action id to be rejected")
	}

	svc = testService("beta")
	svc.Reactions = append(svc.Reactions, ReactionDefinition{ID: "pong"})
	if err := r.Register(svc); err == nil {
		t.Fatal("expected duplicate reaction id to be rejected")
	}
}

func TestUnregisterMissingDoesNotPanic(t *testing.T) {
	r := NewRegistry()
	r.Unregister("nope")
}

func TestAllIsSortedById(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := r.Register(testService(id)); err != nil {
			t.Fatalf("register %s failed: %v", id, err)
		}
	}

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 services, got %d", len(all))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if all[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].ID)
		}
	}
}

func TestActionByType(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(testService("alpha")); err != nil {
		t.Fatal(err)
	}

	svc, action := r.ActionByType("alpha.ping")
	if svc == nil || action == nil {
		t.Fatal("expected alpha.ping to resolve")
	}
	if svc.ID != "alpha" || action.ID != "ping" {
		t.Errorf("resolved wrong pair: %s %s", svc.ID, action.ID)
	}

	if svc, action := r.ActionByType("alpha.nope"); svc != nil || action != nil {
		t.Error("expected unknown action type to resolve to nil")
	}
	if svc, action := r.ActionByType("nope.ping"); svc != nil || action != nil {
		t.Error("expected unknown service prefix to resolve to nil")
	}
}
