package changefeed

import (
	"encoding/json"
	"testing"
)

func TestBridgePublishWithoutDatabaseDeliversLocally(t *testing.T) {
	hub := NewHub()
	bridge := NewBridge(hub, nil, "hrms_changes")
	var got Event
	sub := hub.Subscribe(Filter{Collection: "payroll"}, func(evt Event) { got = evt })
	defer sub.Close()

	bridge.Publish(Event{Collection: "payroll", DocumentID: "e1", Op: OpUpdate})
	if got.DocumentID != "e1" {
		t.Fatalf("expected local delivery, got %+v", got)
	}
	if got.Origin != bridge.Origin() {
		t.Fatalf("expected origin %q, got %q", bridge.Origin(), got.Origin)
	}
}

func TestBridgeDecodeSkipsOwnAndMalformed(t *testing.T) {
	bridge := NewBridge(NewHub(), nil, "hrms_changes")

	own, _ := json.Marshal(Event{Collection: "tasks", Origin: bridge.Origin()})
	if _, ok := bridge.decode(string(own)); ok {
		t.Fatal("expected own event to be skipped")
	}
	if _, ok := bridge.decode("{not json"); ok {
		t.Fatal("expected malformed payload to be skipped")
	}

	remote, _ := json.Marshal(Event{Collection: "user_roles", DocumentID: "a1", Origin: "other", Attrs: map[string]string{"role": "hr"}})
	evt, ok := bridge.decode(string(remote))
	if !ok {
		t.Fatal("expected remote event to decode")
	}
	if evt.Attrs["role"] != "hr" || evt.DocumentID != "a1" {
		t.Fatalf("unexpected decoded event: %+v", evt)
	}
}
