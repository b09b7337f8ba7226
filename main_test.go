package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sokoban-game/game/records"
	"github.com/wricardo/sokoban-game/transport/websocket"
)

const brokenPack = `name: Broken
levels:
  - title: Too Many Crates
    map: |
      ######
      #@$$.#
      ######
  - title: Stuck
    map: |
      #####
      #@ $#
      #.  #
      #####
  - title: No Hero
    map: |
      #####
      #$ .#
      #####
`

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Host:        "127.0.0.1",
		Port:        0,
		DefaultPack: "classic",
		SessionTTL:  time.Hour,
	}
}

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Sokoban Puzzle Server" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

func TestConfigAddr(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 9090}
	if got := cfg.Addr(); got != "localhost:9090" {
		t.Errorf("Expected localhost:9090, got %s", got)
	}
}

func TestInitializeServices(t *testing.T) {
	svc, err := initializeServices(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	if _, ok := svc.records.(*records.MemoryStore); !ok {
		t.Errorf("Expected in-memory records without a database path, got %T", svc.records)
	}

	info, err := svc.game.CreateSession(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.Pack != "classic" || info.Level != 1 {
		t.Errorf("Expected classic level 1, got %s level %d", info.Pack, info.Level)
	}
}

func TestInitializeServices_ConcurrentSessionReads(t *testing.T) {
	svc, err := initializeServices(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()
	info, err := svc.game.CreateSession(ctx, "", 0)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.game.GetSession(ctx, info.ID); err != nil {
					t.Errorf("GetSession failed: %v", err)
					return
				}
				if _, err := svc.game.GetGameState(ctx, info.ID); err != nil {
					t.Errorf("GetGameState failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			svc.sessions.CleanupExpiredSessions(time.Hour)
		}
	}()
	wg.Wait()

	if svc.sessions.Count() != 1 {
		t.Errorf("Expected the session to survive, got %d sessions", svc.sessions.Count())
	}
}

func TestInitializeServices_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.RecordsDB = filepath.Join(t.TempDir(), "records.db")

	svc, err := initializeServices(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	if _, ok := svc.records.(*records.SQLiteStore); !ok {
		t.Errorf("Expected sqlite records store, got %T", svc.records)
	}
	if _, err := os.Stat(cfg.RecordsDB); err != nil {
		t.Errorf("Expected database file to exist: %v", err)
	}
}

func TestInitializeServices_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.LevelsDir = "/non/existent/path"
	if _, err := initializeServices(cfg); err == nil {
		t.Error("Expected error for non-existent levels directory")
	}

	cfg = testConfig(t)
	cfg.DefaultPack = "missing"
	if _, err := initializeServices(cfg); err == nil {
		t.Error("Expected error for unknown default pack")
	}
}

func TestNewHandler(t *testing.T) {
	svc, err := initializeServices(testConfig(t))
	if err != nil {
		t.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	handler := newHandler(svc, websocket.NewHub(), "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected healthz 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/mcp", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405 for GET /mcp, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", strings.NewReader(body)))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Sokoban") {
		t.Errorf("Expected initialize result from /mcp, got %d %s", w.Code, w.Body.String())
	}
}

func TestRunValidate(t *testing.T) {
	var out bytes.Buffer
	if err := runValidate(&out, testConfig(t), nil, true, 0); err != nil {
		t.Fatalf("Expected embedded packs to validate, got %v\n%s", err, out.String())
	}

	for _, want := range []string{"Classic (classic, 5 levels)", "✓ 1. First Push", "solution: 1 moves, 1 pushes"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRunValidate_Failures(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(brokenPack), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.LevelsDir = dir

	var out bytes.Buffer
	err := runValidate(&out, cfg, []string{"broken", "nope"}, true, 1000)
	if err == nil || !strings.Contains(err.Error(), "4 problem(s)") {
		t.Fatalf("Expected 4 problems, got %v\n%s", err, out.String())
	}

	for _, want := range []string{
		"issue: more crates (2) than goals (1)",
		"unsolvable",
		"✗ 3. No Hero",
		"parse error: parse level: level has no hero",
		"✗ nope",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}

func TestRunSolve(t *testing.T) {
	var out bytes.Buffer
	if err := runSolve(&out, testConfig(t), "classic", 2, 0); err != nil {
		t.Fatalf("runSolve failed: %v", err)
	}
	if !strings.Contains(out.String(), "3 moves, 1 pushes") || !strings.Contains(out.String(), "up right down") {
		t.Errorf("Unexpected solve output:\n%s", out.String())
	}

	if err := runSolve(&out, testConfig(t), "classic", 99, 0); err == nil {
		t.Error("Expected error for missing level")
	}
}

func TestAppValidateCommand(t *testing.T) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out

	err := app.Run(context.Background(), []string{"sokoban-game", "--log-level", "error", "validate", "classic"})
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	if !strings.Contains(out.String(), "Classic (classic, 5 levels)") {
		t.Errorf("Unexpected validate output:\n%s", out.String())
	}
}
