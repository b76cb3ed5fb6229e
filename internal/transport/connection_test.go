package transport

import "testing"

func TestConnectionEnqueueDropsWhenQueueFull(t *testing.T) {
	c := NewConnection("c1", nil, 1000, 1000)
	ok := true
	n := 0
	for ok {
		ok = c.Enqueue([]byte("x"))
		if ok {
			n++
		}
	}
	if n != sendQueueSize {
		t.Errorf("accepted %d sends before the queue reported full, want %d", n, sendQueueSize)
	}
}

func TestConnectionEnqueueJSON(t *testing.T) {
	c := NewConnection("c1", nil, 1000, 1000)
	if !c.EnqueueJSON(map[string]any{"event": "pong"}) {
		t.Fatal("EnqueueJSON should succeed on an empty queue")
	}
	select {
	case payload := <-c.send:
		if string(payload) == "" {
			t.Error("expected a non-empty marshaled payload")
		}
	default:
		t.Error("expected a payload on the send channel")
	}
}

func TestConnectionAllowInboundRespectsLimiter(t *testing.T) {
	c := NewConnection("c1", nil, 1, 1) // 1 event/s, burst 1
	if !c.AllowInbound() {
		t.Fatal("first inbound message should be allowed under a fresh burst")
	}
	if c.AllowInbound() {
		t.Error("second immediate inbound message should be rejected once the burst is spent")
	}
}
