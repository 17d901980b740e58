package kernel

import "testing"

func TestEventAcceptance(t *testing.T) {
	e := NewTimerEvent(7)
	if e.IsAccepted() {
		t.Fatal("new event should start unaccepted")
	}
	e.Accept()
	if !e.IsAccepted() {
		t.Fatal("Accept should mark the event accepted")
	}
	e.Ignore()
	if e.IsAccepted() {
		t.Fatal("Ignore should clear acceptance")
	}
}

func TestNewTimerEventCarriesID(t *testing.T) {
	e := NewTimerEvent(42)
	if e.Type() != EventTimer {
		t.Fatalf("expected EventTimer, got %v", e.Type())
	}
	if e.TimerID() != 42 {
		t.Fatalf("expected timer id 42, got %d", e.TimerID())
	}
}

func TestNewChildEventDefaultsToAdded(t *testing.T) {
	child := New(nil, nil)
	e := NewChildEvent(EventNone, child)
	if e.Type() != EventChildAdded {
		t.Fatalf("invalid child event type should default to ChildAdded, got %v", e.Type())
	}
	if e.Child() != child {
		t.Fatal("child pointer not preserved")
	}
}

func TestNewUserEventClampsToUserRange(t *testing.T) {
	e := NewUserEvent(5)
	if e.Type() != EventUser {
		t.Fatalf("user event below EventUser should clamp up, got %v", e.Type())
	}
	e2 := NewUserEvent(EventUser + 10)
	if e2.Type() != EventUser+10 {
		t.Fatalf("user event above EventUser should pass through, got %v", e2.Type())
	}
}
