package netcast

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-strum/bus"
	"go-strum/tablet"
)

func dialTest(t *testing.T, b *Broadcaster) *websocket.Conn {
	t.Helper()
	url := "ws://" + b.Addr() + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func waitForClients(t *testing.T, b *Broadcaster, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count = %d; want %d", b.ClientCount(), want)
}

func TestBroadcastReachesClient(t *testing.T) {
	b, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer b.Close()

	conn := dialTest(t, b)
	defer conn.Close()
	waitForClients(t, b, 1)

	b.Broadcast(bus.CombinedEvent{
		Sample: tablet.Sample{X: 0.4, Pressure: 0.7, State: tablet.StateContact},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	if got["x"] != 0.4 || got["state"] != "contact" {
		t.Errorf("record = %v; want x=0.4 state=contact", got)
	}
	if _, ok := got["strum"]; ok {
		t.Error("record carries an empty strum field")
	}
}

func TestDisconnectedClientIsDropped(t *testing.T) {
	b, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer b.Close()

	conn := dialTest(t, b)
	waitForClients(t, b, 1)
	conn.Close()

	// The read pump notices the close and removes the client
	waitForClients(t, b, 0)

	// Broadcasting with no clients is a no-op
	b.Broadcast(bus.CombinedEvent{})
}

func TestAttachStreamsBusFlushes(t *testing.T) {
	br, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer br.Close()

	eventBus := bus.New(20 * time.Millisecond)
	defer eventBus.Cleanup()
	br.Attach(eventBus)

	conn := dialTest(t, br)
	defer conn.Close()
	waitForClients(t, br, 1)

	eventBus.EmitTabletEvent(tablet.Sample{X: 0.9, State: tablet.StateHover})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["x"] != 0.9 || got["state"] != "hover" {
		t.Errorf("record = %v; want x=0.9 state=hover", got)
	}
}
