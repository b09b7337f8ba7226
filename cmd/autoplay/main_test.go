package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wricardo/sokoban-game/api"
	"github.com/wricardo/sokoban-game/game/levels"
	"github.com/wricardo/sokoban-game/game/records"
	"github.com/wricardo/sokoban-game/game/service"
	"github.com/wricardo/sokoban-game/game/session"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	packs, err := levels.NewManager("")
	if err != nil {
		t.Fatalf("Failed to create pack manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), packs, records.NewMemoryStore())
	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)
	return server
}

func TestPlayPack_SolvesClassic(t *testing.T) {
	server := newTestServer(t)
	client := NewClient(server.URL)

	runs, err := PlayPack(client, "classic", 1, 0)
	if err != nil {
		t.Fatalf("PlayPack failed: %v", err)
	}
	if len(runs) != 5 {
		t.Fatalf("Expected 5 levels played, got %d", len(runs))
	}
	for i, run := range runs {
		if run.Level != i+1 {
			t.Errorf("Run %d: expected level %d, got %d", i, i+1, run.Level)
		}
		if !run.Solved {
			t.Errorf("Level %d not solved: %s", run.Level, run.Reason)
		}
		if run.Pushes == 0 || run.Moves < run.Pushes {
			t.Errorf("Level %d: unexpected counts %d moves %d pushes", run.Level, run.Moves, run.Pushes)
		}
	}

	state, err := client.GetState()
	if err != nil {
		t.Fatalf("GetState failed: %v", err)
	}
	if state.Level != 5 || !state.Victory {
		t.Errorf("Expected final level won, got level %d victory=%v", state.Level, state.Victory)
	}
}

func TestPlayPack_MaxLevels(t *testing.T) {
	server := newTestServer(t)

	runs, err := PlayPack(NewClient(server.URL), "", 2, 2)
	if err != nil {
		t.Fatalf("PlayPack failed: %v", err)
	}
	if len(runs) != 2 || runs[0].Level != 2 || runs[1].Level != 3 {
		t.Errorf("Expected levels 2 and 3, got %+v", runs)
	}
}

func TestPlayPack_UnknownPack(t *testing.T) {
	server := newTestServer(t)

	_, err := PlayPack(NewClient(server.URL), "nope", 1, 0)
	if err == nil {
		t.Fatal("Expected error for unknown pack")
	}
	if !strings.Contains(err.Error(), "create session") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "abc"
	if _, err := client.GetState(); err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Errorf("Expected status error, got %v", err)
	}
}
