// Command autoplay plays a whole level pack against a running server through
// the REST API. Each level is solved by asking the server for a hint and
// replaying it with bulk moves, then the session advances to the next level.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/service"
)

// Client talks to the game server for a single session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type snapshotResponse struct {
	Message string           `json:"message"`
	State   *engine.Snapshot `json:"state"`
}

// CreateSession starts a session on the given pack; an empty pack uses the server default
func (c *Client) CreateSession(pack string, level int) (*engine.Snapshot, error) {
	req := map[string]interface{}{}
	if pack != "" {
		req["pack"] = pack
	}
	if level > 0 {
		req["level"] = level
	}

	var info service.SessionInfo
	if err := c.do(http.MethodPost, "/api/sessions", req, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return info.GameState, nil
}

func (c *Client) GetState() (*engine.Snapshot, error) {
	var state engine.Snapshot
	if err := c.do(http.MethodGet, c.sessionPath("/state"), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) Hint() (*service.HintResult, error) {
	var hint service.HintResult
	if err := c.do(http.MethodGet, c.sessionPath("/hint"), nil, &hint); err != nil {
		return nil, err
	}
	return &hint, nil
}

func (c *Client) BulkMove(directions []string) (*service.BulkMoveResult, error) {
	var result service.BulkMoveResult
	if err := c.do(http.MethodPost, c.sessionPath("/bulk-move"), map[string][]string{"moves": directions}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) NextLevel() (*engine.Snapshot, error) {
	var resp snapshotResponse
	if err := c.do(http.MethodPost, c.sessionPath("/next"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(data, result)
}

// LevelRun records how one level went
type LevelRun struct {
	Level  int
	Moves  int
	Pushes int
	Solved bool
	Reason string
}

// PlayPack solves levels until the pack ends, a level cannot be solved, or maxLevels is reached
func PlayPack(c *Client, pack string, startLevel, maxLevels int) ([]LevelRun, error) {
	state, err := c.CreateSession(pack, startLevel)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", c.sessionID).Int("level", state.Level).Int("levels", state.LevelCount).Msg("session created")

	var runs []LevelRun
	for {
		run, err := playLevel(c, state)
		if err != nil {
			return runs, err
		}
		runs = append(runs, run)

		if !run.Solved || !state.HasMoreLevels || (maxLevels > 0 && len(runs) >= maxLevels) {
			return runs, nil
		}

		state, err = c.NextLevel()
		if err != nil {
			return runs, err
		}
	}
}

func playLevel(c *Client, state *engine.Snapshot) (LevelRun, error) {
	run := LevelRun{Level: state.Level}

	hint, err := c.Hint()
	if err != nil {
		return run, err
	}
	if !hint.Solvable {
		run.Reason = hint.Message
		log.Warn().Int("level", run.Level).Str("reason", hint.Message).Msg("giving up on level")
		return run, nil
	}

	moves := hint.Moves
	for len(moves) > 0 {
		chunk := moves
		if len(chunk) > engine.MaxBulkMoves {
			chunk = chunk[:engine.MaxBulkMoves]
		}
		moves = moves[len(chunk):]

		result, err := c.BulkMove(chunk)
		if err != nil {
			return run, err
		}
		run.Moves += result.MovesExecuted
		run.Pushes += result.Pushes
		*state = *result.GameState

		if result.StopReasonCode != "" && result.StopReasonCode != service.StopVictory {
			run.Reason = result.StoppedReason
			return run, nil
		}
	}

	run.Solved = state.Victory
	if !run.Solved {
		run.Reason = "hint replay did not finish the level"
	}
	log.Info().Int("level", run.Level).Int("moves", run.Moves).Int("pushes", run.Pushes).Bool("solved", run.Solved).Msg("level played")
	return run, nil
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "Game server URL")
	pack := flag.String("pack", "", "Level pack (default: server default)")
	level := flag.Int("level", 1, "Level to start from")
	maxLevels := flag.Int("max-levels", 0, "Stop after this many levels (0 = all)")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	start := time.Now()
	runs, err := PlayPack(NewClient(*serverURL), *pack, *level, *maxLevels)
	for _, run := range runs {
		if run.Solved {
			fmt.Printf("✅ Level %d: %d moves, %d pushes\n", run.Level, run.Moves, run.Pushes)
		} else {
			fmt.Printf("❌ Level %d: %s\n", run.Level, run.Reason)
		}
	}
	if err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
	fmt.Printf("\nPlayed %d levels in %v\n", len(runs), time.Since(start).Round(time.Millisecond))
}
