package handlers

import (
	"testing"

	"chat-relay/internal/models"
)

func TestHub_BindAndRemove(t *testing.T) {
	hub := NewHub()

	hub.Add("conn-1", nil)
	if hub.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", hub.Len())
	}
	if hub.User("conn-1") != nil {
		t.Error("User() should be nil before a user is bound")
	}

	alice := models.User{ID: "user_a", Name: "Alice"}
	if !hub.BindIfNameFree("conn-1", alice) {
		t.Fatal("BindIfNameFree() = false on an empty hub")
	}

	bound := hub.User("conn-1")
	if bound == nil || bound.ID != alice.ID {
		t.Fatalf("User() = %v, want Alice", bound)
	}

	removed := hub.Remove("conn-1")
	if removed == nil || removed.ID != alice.ID {
		t.Fatalf("Remove() = %v, want Alice", removed)
	}
	if hub.Len() != 0 {
		t.Errorf("Len() = %d after Remove, want 0", hub.Len())
	}

	// Removing again returns nothing.
	if hub.Remove("conn-1") != nil {
		t.Error("Remove() on a gone conn should return nil")
	}
}

func TestHub_BindIfNameFree(t *testing.T) {
	hub := NewHub()
	hub.Add("conn-1", nil)
	hub.Add("conn-2", nil)

	if !hub.BindIfNameFree("conn-1", models.User{ID: "user_a", Name: "Alice"}) {
		t.Fatal("BindIfNameFree() = false for a free name")
	}
	if hub.User("conn-1") == nil {
		t.Fatal("BindIfNameFree() did not bind the user")
	}

	// Second connection with the same name loses.
	if hub.BindIfNameFree("conn-2", models.User{ID: "user_b", Name: "Alice"}) {
		t.Error("BindIfNameFree() = true for a taken name")
	}
	if hub.User("conn-2") != nil {
		t.Error("BindIfNameFree() bound a user despite rejecting")
	}

	// A different name still goes through.
	if !hub.BindIfNameFree("conn-2", models.User{ID: "user_b", Name: "Bob"}) {
		t.Error("BindIfNameFree() = false for a distinct name")
	}

	// Once the holder is gone, the name is free again.
	hub.Remove("conn-1")
	hub.Add("conn-3", nil)
	if !hub.BindIfNameFree("conn-3", models.User{ID: "user_c", Name: "Alice"}) {
		t.Error("BindIfNameFree() = false after the holder disconnected")
	}
}

func TestHub_BroadcastSkipsNilConns(t *testing.T) {
	hub := NewHub()
	hub.Add("conn-1", nil)
	hub.Add("conn-2", nil)

	// Must not panic on connections without a live socket.
	hub.Broadcast(models.WSEvent{Event: "users-updated"})
	hub.Send("conn-1", models.WSEvent{Event: "new-message"})
	hub.Send("missing", models.WSEvent{Event: "new-message"})
}
