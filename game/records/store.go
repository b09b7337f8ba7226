package records

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNoRecord      = errors.New("no record for level")
	ErrInvalidResult = errors.New("invalid result")
)

// Result is one solved level
type Result struct {
	ID        string    `json:"id"`
	Pack      string    `json:"pack"`
	Level     int       `json:"level"`
	Steps     int       `json:"steps"`
	SessionID string    `json:"session_id"`
	SolvedAt  time.Time `json:"solved_at"`
}

// NewResult creates a result with a fresh ID and the current time
func NewResult(pack string, level, steps int, sessionID string) Result {
	return Result{
		ID:        uuid.NewString(),
		Pack:      pack,
		Level:     level,
		Steps:     steps,
		SessionID: sessionID,
		SolvedAt:  time.Now().UTC(),
	}
}

func (r Result) validate() error {
	if r.Pack == "" || r.Level < 1 || r.Steps < 0 {
		return ErrInvalidResult
	}
	return nil
}

// Store persists solved levels
type Store interface {
	// Record stores a result and reports whether it beats the previous best
	Record(ctx context.Context, r Result) (bool, error)
	// Best returns the fewest-steps result of a level
	Best(ctx context.Context, pack string, level int) (*Result, error)
	// List returns every result of a pack ordered by level, steps, then time
	List(ctx context.Context, pack string) ([]Result, error)
	Close() error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	results []Result
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record stores a result
func (s *MemoryStore) Record(ctx context.Context, r Result) (bool, error) {
	if err := r.validate(); err != nil {
		return false, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	isBest := true
	for _, existing := range s.results {
		if existing.Pack == r.Pack && existing.Level == r.Level && existing.Steps <= r.Steps {
			isBest = false
			break
		}
	}
	s.results = append(s.results, r)
	return isBest, nil
}

// Best returns the best result of a level
func (s *MemoryStore) Best(ctx context.Context, pack string, level int) (*Result, error) {
	list, err := s.List(ctx, pack)
	if err != nil {
		return nil, err
	}
	for _, r := range list {
		if r.Level == level {
			return &r, nil
		}
	}
	return nil, ErrNoRecord
}

// List returns the results of a pack
func (s *MemoryStore) List(ctx context.Context, pack string) ([]Result, error) {
	s.mu.RLock()
	out := make([]Result, 0, len(s.results))
	for _, r := range s.results {
		if r.Pack == pack {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Steps != out[j].Steps {
			return out[i].Steps < out[j].Steps
		}
		return out[i].SolvedAt.Before(out[j].SolvedAt)
	})
	return out, nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
