package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/sokoban-game/game/engine"
)

func createTestCatalog() engine.StaticCatalog {
	return engine.StaticCatalog{
		"######\n#@ $.#\n######",
		"#####\n#@$.#\n#####",
	}
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", "test", catalog, 1)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Pack != "test" {
			t.Errorf("Expected pack 'test', got '%s'", session.Pack)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be initialized")
		}
		if session.Engine.CurrentLevel() != 1 {
			t.Errorf("Expected level 1, got %d", session.Engine.CurrentLevel())
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", "test", catalog, 2)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
		if session.Engine.CurrentLevel() != 2 {
			t.Errorf("Expected level 2, got %d", session.Engine.CurrentLevel())
		}
	})

	t.Run("duplicate session ID", func(t *testing.T) {
		_, err := manager.Create("test-session", "test", catalog, 1)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists, got %v", err)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", "test", catalog, 1)
		if err != ErrSessionAlreadyExists {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid ID", func(t *testing.T) {
		_, err := manager.Create("has space", "test", catalog, 1)
		if err != ErrInvalidSessionID {
			t.Errorf("Expected ErrInvalidSessionID, got %v", err)
		}
	})

	t.Run("level out of range", func(t *testing.T) {
		_, err := manager.Create("out-of-range", "test", catalog, 3)
		if !errors.Is(err, engine.ErrNoSuchLevel) {
			t.Errorf("Expected ErrNoSuchLevel, got %v", err)
		}
	})

	t.Run("broken level", func(t *testing.T) {
		_, err := manager.Create("broken", "test", engine.StaticCatalog{"#####"}, 1)
		if !errors.Is(err, engine.ErrNoHero) {
			t.Errorf("Expected ErrNoHero, got %v", err)
		}
		if manager.sessionExists("broken") {
			t.Error("Failed creation must not register a session")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()

	created, _ := manager.Create("get-test", "test", createTestCatalog(), 1)

	t.Run("get existing session", func(t *testing.T) {
		session, err := manager.Get("get-test")
		if err != nil {
			t.Fatalf("Failed to get session: %v", err)
		}
		if session != created {
			t.Errorf("Expected the created session back")
		}
	})

	t.Run("case-insensitive get", func(t *testing.T) {
		session, err := manager.Get("GET-TEST")
		if err != nil {
			t.Fatalf("Failed to get session with different case: %v", err)
		}
		if session.ID != created.ID {
			t.Errorf("Expected same session regardless of case")
		}
	})

	t.Run("get non-existent session", func(t *testing.T) {
		_, err := manager.Get("non-existent")
		if err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestManager_GetOrCreate(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	first, err := manager.GetOrCreate("new-session", "test", catalog, 1)
	if err != nil {
		t.Fatalf("Failed to get or create session: %v", err)
	}

	second, err := manager.GetOrCreate("new-session", "test", catalog, 2)
	if err != nil {
		t.Fatalf("Failed to get existing session: %v", err)
	}
	if first != second {
		t.Error("Expected the existing session to be returned")
	}
	if second.Engine.CurrentLevel() != 1 {
		t.Error("Existing session must keep its level")
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	manager.Create("delete-test", "test", catalog, 1)

	t.Run("delete existing session", func(t *testing.T) {
		if err := manager.Delete("delete-test"); err != nil {
			t.Fatalf("Failed to delete session: %v", err)
		}
		if _, err := manager.Get("delete-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted")
		}
	})

	t.Run("delete non-existent session", func(t *testing.T) {
		if err := manager.Delete("non-existent"); err != ErrSessionNotFound {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("case-insensitive delete", func(t *testing.T) {
		manager.Create("case-test", "test", catalog, 1)
		if err := manager.Delete("CASE-TEST"); err != nil {
			t.Fatalf("Failed to delete with different case: %v", err)
		}
		if _, err := manager.Get("case-test"); err != ErrSessionNotFound {
			t.Error("Expected session to be deleted regardless of case")
		}
	})
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	for i := 1; i <= 3; i++ {
		if _, err := manager.Create(fmt.Sprintf("list-%d", i), "test", catalog, 1); err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
	}

	sessions := manager.List()
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}

	found := make(map[string]bool)
	for _, s := range sessions {
		found[s.ID] = true
	}
	for i := 1; i <= 3; i++ {
		if !found[fmt.Sprintf("list-%d", i)] {
			t.Errorf("Session list-%d not found in list", i)
		}
	}
	if manager.Count() != 3 {
		t.Errorf("Expected count 3, got %d", manager.Count())
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	active, _ := manager.Create("active", "test", catalog, 1)
	expired, _ := manager.Create("expired", "test", catalog, 1)

	expired.LastAccessedAt = time.Now().Add(-2 * time.Hour)
	active.LastAccessedAt = time.Now()

	if deleted := manager.CleanupExpiredSessions(1 * time.Hour); deleted != 1 {
		t.Errorf("Expected 1 session to be deleted, got %d", deleted)
	}
	if _, err := manager.Get("expired"); err != ErrSessionNotFound {
		t.Error("Expected expired session to be deleted")
	}
	if _, err := manager.Get("active"); err != nil {
		t.Error("Expected active session to still exist")
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()

	session, _ := manager.Create("access-test", "test", createTestCatalog(), 1)
	originalTime := session.LastAccessedAt

	time.Sleep(10 * time.Millisecond)

	if err := manager.UpdateLastAccessed("ACCESS-test"); err != nil {
		t.Fatalf("Failed to update last accessed: %v", err)
	}
	if !session.LastAccessedAt.After(originalTime) {
		t.Error("Expected LastAccessedAt to be updated")
	}
	if err := manager.UpdateLastAccessed("missing"); err != ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.Create("", "test", catalog, 1); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() != 100 {
		t.Errorf("Expected 100 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	catalog := createTestCatalog()

	session1, _ := manager.Create("iso-1", "test", catalog, 1)
	session2, _ := manager.Create("iso-2", "test", catalog, 1)

	session1.Engine.Move("right")

	if session2.Engine.GetState().Hero.X != 1 {
		t.Error("Session 2 should not be affected by session 1 moves")
	}
	if session1.Engine.GetState().Hero.X != 2 {
		t.Error("Session 1 should have moved")
	}
}

func TestManager_SessionIDGeneration(t *testing.T) {
	manager := NewManager()
	generated := make(map[string]bool)

	for i := 0; i < 50; i++ {
		session, err := manager.Create("", "test", createTestCatalog(), 1)
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if generated[session.ID] {
			t.Errorf("Duplicate session ID generated: %s", session.ID)
		}
		generated[session.ID] = true

		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character ID, got %d", len(session.ID))
		}
	}
}
