package presence

import (
	"testing"

	"codepair/realtime/internal/auth"
)

func fakeClient(id string) *client {
	return newClient(auth.Identity{SubjectID: id, Role: "GUEST"}, nil)
}

func TestRoomRemovedWhenEmpty(t *testing.T) {
	hub := NewHub()
	a := fakeClient("a")
	b := fakeClient("b")

	hub.Join("room", a)
	hub.Join("room", b)
	if got := hub.MemberCount("room"); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}

	hub.Leave("room", a)
	hub.Leave("room", b)
	if got := hub.MemberCount("room"); got != 0 {
		t.Fatalf("expected empty room to be dropped, got %d members", got)
	}

	hub.mu.Lock()
	_, exists := hub.rooms["room"]
	hub.mu.Unlock()
	if exists {
		t.Fatal("expected room to be removed from hub")
	}

	// A fresh join after cleanup recreates the room.
	if !hub.Join("room", a) {
		t.Fatal("expected rejoin to succeed")
	}
	if got := hub.MemberCount("room"); got != 1 {
		t.Fatalf("expected 1 member after rejoin, got %d", got)
	}
}

func TestLeaveWithoutJoin(t *testing.T) {
	hub := NewHub()
	if hub.Leave("nowhere", fakeClient("a")) {
		t.Fatal("expected leave of unknown room to report false")
	}
}
