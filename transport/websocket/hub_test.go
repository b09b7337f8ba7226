package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wricardo/sokoban-game/game/engine"
)

func newTestClient(hub *Hub, sessionID string) *Client {
	return &Client{
		hub:       hub,
		sessionID: sessionID,
		send:      make(chan []byte, sendBufferSize),
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel is nil")
	}
	if hub.register == nil || hub.unregister == nil {
		t.Error("Hub register/unregister channels are nil")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if got := hub.ClientCount("test-session"); got != 1 {
		t.Errorf("Expected 1 client in session, got %d", got)
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()
	client := newTestClient(hub, "test-session")

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}
	if _, ok := <-client.send; ok {
		t.Error("send channel should be closed after unregister")
	}

	// A second unregister is a no-op
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := newTestClient(hub, sessionID)
	client2 := newTestClient(hub, sessionID)

	hub.registerClient(client1)
	hub.registerClient(client2)

	if got := hub.ClientCount(sessionID); got != 2 {
		t.Errorf("Expected 2 clients in session, got %d", got)
	}

	hub.unregisterClient(client1)

	if got := hub.ClientCount(sessionID); got != 1 {
		t.Errorf("Expected 1 client remaining in session, got %d", got)
	}
	if !hub.sessions[sessionID][client2] {
		t.Error("client2 should still be registered")
	}
}

func TestHubBroadcastToSession(t *testing.T) {
	hub := NewHub()
	sessionID := "broadcast-test"

	client := newTestClient(hub, sessionID)
	other := newTestClient(hub, "other-session")
	hub.registerClient(client)
	hub.registerClient(other)

	state := &engine.Snapshot{
		Level:     2,
		Hero:      engine.Position{X: 5, Y: 3},
		StepCount: 7,
	}

	hub.BroadcastToSession(sessionID, state)

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if msg.SessionID != sessionID {
			t.Errorf("Expected session ID %s, got %s", sessionID, msg.SessionID)
		}
		if msg.Event != EventState {
			t.Errorf("Expected event %s, got %s", EventState, msg.Event)
		}
		if msg.GameState == nil || msg.GameState.StepCount != 7 || msg.GameState.Hero.X != 5 {
			t.Errorf("Unexpected game state: %+v", msg.GameState)
		}
	default:
		t.Error("No message received by client")
	}

	select {
	case <-other.send:
		t.Error("Client in another session should not receive the broadcast")
	default:
	}
}

func TestHubBroadcastDropsFullClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(client)

	hub.BroadcastToSession("slow", &engine.Snapshot{})

	if got := hub.ClientCount("slow"); got != 0 {
		t.Errorf("Expected blocked client to be dropped, %d remain", got)
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := newTestClient(hub, "events")
	hub.register <- client

	hub.BroadcastEvent("events", "level_complete", map[string]int{"level": 1})

	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		if msg.Event != "level_complete" {
			t.Errorf("Expected event level_complete, got %s", msg.Event)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}
}

func TestHubShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	served := make(chan struct{}, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "abcd", nil)
		served <- struct{}{}
	}))
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()
	<-served

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The hub closes the connection of every attached client
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection to be closed on shutdown")
	}

	// Leaving and joining after shutdown must not block
	left := make(chan struct{})
	go func() {
		hub.leave(newTestClient(hub, "abcd"))
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked after shutdown")
	}

	late, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		defer late.Close()
	}
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatal("ServeWS blocked after shutdown")
	}

	for i := 0; i < sendBufferSize+1; i++ {
		hub.BroadcastEvent("abcd", EventSessionDeleted, nil)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	return msg
}

func TestServeWSIntentRoundTrip(t *testing.T) {
	hub := NewHub()
	steps := 0
	hub.OnIntent(func(ctx context.Context, sessionID, intent string) (*engine.Snapshot, error) {
		if intent != "right" {
			return nil, errors.New("invalid direction: " + intent)
		}
		steps++
		return &engine.Snapshot{StepCount: steps}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "abcd", &engine.Snapshot{Level: 1})
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	initial := readMessage(t, conn)
	if initial.GameState == nil || initial.GameState.Level != 1 {
		t.Fatalf("Expected initial state for level 1, got %+v", initial)
	}

	if err := conn.WriteJSON(IntentMessage{Intent: "right"}); err != nil {
		t.Fatalf("Failed to send intent: %v", err)
	}
	update := readMessage(t, conn)
	if update.Event != EventState || update.GameState == nil || update.GameState.StepCount != 1 {
		t.Errorf("Expected state update with one step, got %+v", update)
	}

	if err := conn.WriteJSON(IntentMessage{Intent: "sideways"}); err != nil {
		t.Fatalf("Failed to send intent: %v", err)
	}
	failure := readMessage(t, conn)
	if failure.Event != EventError || !strings.Contains(failure.Error, "invalid direction") {
		t.Errorf("Expected error reply, got %+v", failure)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
	malformed := readMessage(t, conn)
	if malformed.Event != EventError {
		t.Errorf("Expected error reply for malformed message, got %+v", malformed)
	}
}
