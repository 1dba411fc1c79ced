package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		send:   make(chan WSMessage, 8),
	}
}

func TestHubRegisterUnregisterCounts(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()

	c1 := newTestClient(userID)
	c2 := newTestClient(userID)
	hub.Register(c1)
	hub.Register(c2)

	if got := hub.Connections(userID); got != 2 {
		t.Fatalf("Connections = %d, want 2", got)
	}

	hub.Unregister(c1)
	if got := hub.Connections(userID); got != 1 {
		t.Fatalf("Connections after first unregister = %d, want 1", got)
	}

	hub.Unregister(c2)
	if got := hub.Connections(userID); got != 0 {
		t.Fatalf("Connections after last unregister = %d, want 0", got)
	}
}

func TestHubPushDeliversLocallyWithoutPublisher(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	userID := uuid.New()
	other := newTestClient(uuid.New())
	c := newTestClient(userID)
	hub.Register(c)
	hub.Register(other)

	hub.Push(userID, "notification", map[string]string{"title": "You were tagged"})

	select {
	case msg := <-c.send:
		if msg.Event != "notification" {
			t.Fatalf("event = %q, want notification", msg.Event)
		}
		var payload map[string]string
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if payload["title"] != "You were tagged" {
			t.Fatalf("payload title = %q", payload["title"])
		}
	default:
		t.Fatal("no message delivered to the user's connection")
	}

	select {
	case msg := <-other.send:
		t.Fatalf("unexpected delivery to another user: %+v", msg)
	default:
	}
}

type recordingPublisher struct {
	userID  uuid.UUID
	event   string
	payload []byte
	calls   int
}

func (p *recordingPublisher) PublishUserEvent(userID uuid.UUID, event string, payload []byte) error {
	p.userID = userID
	p.event = event
	p.payload = payload
	p.calls++
	return nil
}

func TestHubPushRoutesThroughPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	hub := NewHub(zap.NewNop(), pub, nil)
	userID := uuid.New()
	c := newTestClient(userID)
	hub.Register(c)

	hub.Push(userID, "notification", map[string]string{"title": "hi"})

	if pub.calls != 1 {
		t.Fatalf("publisher calls = %d, want 1", pub.calls)
	}
	if pub.userID != userID || pub.event != "notification" {
		t.Fatalf("published to %s event %q", pub.userID, pub.event)
	}
	// with a publisher present nothing is delivered locally; the pub/sub
	// round-trip brings it back
	select {
	case msg := <-c.send:
		t.Fatalf("unexpected local delivery: %+v", msg)
	default:
	}
}
