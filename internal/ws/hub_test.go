package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func TestHubNotifyFansOutToAllUserConnections(t *testing.T) {
	hub := NewHub()

	c1 := &Client{UserID: 1, Send: make(chan []byte, 1), hub: hub}
	c2 := &Client{UserID: 1, Send: make(chan []byte, 1), hub: hub}
	other := &Client{UserID: 2, Send: make(chan []byte, 1), hub: hub}
	hub.register(c1)
	hub.register(c2)
	hub.register(other)

	hub.Notify(1, "balance_changed", map[string]interface{}{"points": float64(150)})

	for _, c := range []*Client{c1, c2} {
		select {
		case msg := <-c.Send:
			var ev event
			if err := json.Unmarshal(msg, &ev); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if ev.Type != "balance_changed" {
				t.Fatalf("expected balance_changed, got %s", ev.Type)
			}
			if ev.Payload["points"] != float64(150) {
				t.Fatalf("unexpected payload: %v", ev.Payload)
			}
		default:
			t.Fatal("expected event on client channel")
		}
	}

	select {
	case <-other.Send:
		t.Fatal("event leaked to another user's client")
	default:
	}
}

func TestHubNotifySkipsSlowClient(t *testing.T) {
	hub := NewHub()

	slow := &Client{UserID: 1, Send: make(chan []byte), hub: hub} // unbuffered, nobody reading
	hub.register(slow)

	// must not block even though nothing drains the channel
	done := make(chan struct{})
	go func() {
		hub.Notify(1, "rank_up", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a slow client")
	}
}

func TestHubUnregisterDropsUser(t *testing.T) {
	hub := NewHub()
	c := &Client{UserID: 5, Send: make(chan []byte, 1), hub: hub}

	hub.register(c)
	if n := hub.ConnectedUsers(); n != 1 {
		t.Fatalf("expected 1 connected user, got %d", n)
	}

	hub.unregister(c)
	if n := hub.ConnectedUsers(); n != 0 {
		t.Fatalf("expected 0 connected users, got %d", n)
	}

	// events for gone users are a no-op
	hub.Notify(5, "balance_changed", nil)
}
