package websocket

import (
	"encoding/json"
	"testing"
	"time"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		if !ok {
			t.Fatalf("send channel closed")
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return Message{}
}

func expectNothing(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("unexpected message %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastAndSubscribe(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	all := NewClient(h, nil)
	one := NewClient(h, nil)
	h.Register(all)
	h.Register(one)
	h.Subscribe(one, "p1")

	h.Publish("p2", "post.liked", map[string]string{"id": "p2"})
	h.Publish("p1", "comment.added", map[string]string{"id": "p1"})

	if msg := receive(t, all); msg.Action != "post.liked" {
		t.Fatalf("expected post.liked, got %s", msg.Action)
	}
	if msg := receive(t, all); msg.Action != "comment.added" {
		t.Fatalf("expected comment.added, got %s", msg.Action)
	}
	if msg := receive(t, one); msg.Action != "comment.added" {
		t.Fatalf("expected only the subscribed post's event, got %s", msg.Action)
	}
	expectNothing(t, one)

	h.SendTo(one, NewErrorMessage("nope"))
	if msg := receive(t, one); msg.Action != "error" {
		t.Fatalf("expected error reply, got %s", msg.Action)
	}
	expectNothing(t, all)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	c := NewClient(h, nil)
	h.Register(c)
	h.Unregister(c)

	select {
	case _, ok := <-c.Send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for close")
	}

	// A second unregister must not panic on a closed channel.
	h.Unregister(c)
}

func TestHubStop(t *testing.T) {
	h := NewHub()
	stopped := make(chan struct{})
	go func() {
		h.Run()
		close(stopped)
	}()

	c := NewClient(h, nil)
	h.Register(c)
	h.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}
	if _, ok := <-c.Send; ok {
		t.Fatalf("expected send channel closed on stop")
	}

	// Calls after Stop return immediately.
	h.Unregister(c)
	h.Subscribe(c, "p1")
	h.Publish("p1", "post.liked", nil)
}
