package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/records"
	"github.com/wricardo/sokoban-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Hints can run the solver for a while
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Sokoban",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sokoban - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Push every crate ($) onto a goal (.) to solve the level. The hero (@) walks
one cell at a time and can push a single crate, never pull it.

AVAILABLE TOOLS:
- create_session: Start a session on a pack and level
- list_sessions / get_session: Inspect sessions
- game_state: Current board
- move / bulk_move: Walk or push (up/down/left/right)
- undo / restart: Take back the last action or reload the level
- next_level / select_level: Level progression
- hint: Ask the solver for the shortest solution from here
- move_history: The session journal
- list_packs / leaderboard: Level packs and best results
- game_instructions: Full rules and strategy notes`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{"session_id": sessionProperty()},
		Required:   []string{"session_id"},
	}
}

func emptySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]interface{}{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session, optionally on a given pack and level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pack": map[string]interface{}{
					"type":        "string",
					"description": "Level pack to play (optional, defaults to the server's default pack)",
				},
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "1-based level number to start on (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: emptySchema(),
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board of a session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the hero one cell, pushing a crate if one is in the way",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to move",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this move",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, c.handleMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence; stops at the first blocked move or when the level is solved", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"moves": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
					"description": "Array of moves",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of moves",
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, c.handleBulkMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undo",
		Description: "Undo the last step or push",
		InputSchema: sessionOnlySchema(),
	}, c.snapshotTool("undo", "Undid last action"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Reload the current level from scratch",
		InputSchema: sessionOnlySchema(),
	}, c.snapshotTool("restart", "Level restarted"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "next_level",
		Description: "Advance to the next level after solving the current one",
		InputSchema: sessionOnlySchema(),
	}, c.snapshotTool("next", "Advanced to the next level"))

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_level",
		Description: "Jump to any level of the session's pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"level": map[string]interface{}{
					"type":        "integer",
					"description": "1-based level number",
				},
			},
			Required: []string{"session_id", "level"},
		},
	}, c.handleSelectLevel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Solve the current position and return the shortest move sequence",
		InputSchema: sessionOnlySchema(),
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the action journal of a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	// Packs
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_packs",
		Description: "List available level packs",
		InputSchema: emptySchema(),
	}, c.handleListPacks)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "leaderboard",
		Description: "Best recorded results per level of a pack",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"pack": map[string]interface{}{
					"type":        "string",
					"description": "Pack name",
				},
			},
			Required: []string{"pack"},
		},
	}, c.handleLeaderboard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules and map legend",
		InputSchema: emptySchema(),
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func sessionPath(args map[string]interface{}, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if pack, _ := args["pack"].(string); pack != "" {
		body["pack"] = pack
	}
	if level, ok := args["level"].(float64); ok {
		body["level"] = int(level)
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatSessionInfo(&session))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&b, "- %s (Pack: %s, Level: %d, Created: %s)\n",
			s.ID, s.Pack, s.Level, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, _ := args["direction"].(string)

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]string{"direction": direction}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/bulk-move")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	movesRaw, _ := args["moves"].([]interface{})
	moves := make([]string, 0, len(movesRaw))
	for _, m := range movesRaw {
		if move, ok := m.(string); ok {
			moves = append(moves, move)
		}
	}

	var result service.BulkMoveResult
	if err := c.apiCall(ctx, "POST", path, map[string]interface{}{"moves": moves}, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatBulkMoveResult(&result)), nil
}

// snapshotTool builds a handler for the POST endpoints that return {"state":...}
func (c *Client) snapshotTool(endpoint, message string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := sessionPath(arguments(request), "/"+endpoint)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var response struct {
			State *engine.Snapshot `json:"state"`
		}
		if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(message + "\n\n" + formatGameState(response.State)), nil
	}
}

func (c *Client) handleSelectLevel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	level, ok := args["level"].(float64)
	if !ok {
		return mcp.NewToolResultError("level is required"), nil
	}

	var response struct {
		State *engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", path, map[string]int{"level": int(level)}, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(response.State)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/hint")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var hint service.HintResult
	if err := c.apiCall(ctx, "GET", path, nil, &hint); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHint(&hint)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page, ok := args["page"].(float64); ok {
		params.Set("page", fmt.Sprint(int(page)))
	}
	if limit, ok := args["limit"].(float64); ok {
		params.Set("limit", fmt.Sprint(int(limit)))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListPacks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var packs []service.PackInfo
	if err := c.apiCall(ctx, "GET", "/api/packs", nil, &packs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Packs:\n\n")
	for _, p := range packs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Levels: %d\n\n", p.PackID, p.Name, p.Description, p.LevelCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleLeaderboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pack, _ := arguments(request)["pack"].(string)
	if pack == "" {
		return mcp.NewToolResultError("pack is required"), nil
	}

	var response struct {
		Pack    string           `json:"pack"`
		Results []records.Result `json:"results"`
	}
	if err := c.apiCall(ctx, "GET", "/api/packs/"+url.PathEscape(pack)+"/records", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatLeaderboard(response.Pack, response.Results)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Sokoban - Complete Instructions

GAME OBJECTIVE:
Push every crate onto a goal square. The level is solved the moment the last
crate lands on a goal.

MAP LEGEND:
  #  wall            @  hero
  $  crate           .  goal
  *  crate on goal   +  hero standing on a goal
  (space) floor

Coordinates are (x,y) with x growing to the right and y growing downwards;
(0,0) is the top-left character of the first row.

MOVEMENT COMMANDS:
• up / down / left / right move the hero one cell
• Walking into a crate pushes it one cell further
• A push fails if a wall or another crate is behind the crate
• Blocked moves change nothing and do not count as steps

UNDO AND RESTART:
• undo takes back the last step; a push is undone as one action
• restart reloads the level and clears the undo history

PROGRESSION:
• After solving, call next_level to continue through the pack
• select_level jumps to any level
• The first time a session solves a level its step count is recorded

STRATEGY:
• A crate pushed into a corner that is not a goal can never move again
• A crate against a wall can only slide along that wall
• Use hint when stuck: it returns the shortest solution from the current position

Good luck!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nPack: %s\nLevel: %d", session.ID, session.Pack, session.Level)
	if session.LevelTitle != "" {
		fmt.Fprintf(&b, " (%s)", session.LevelTitle)
	}
	fmt.Fprintf(&b, "\nCreated: %s\nLast Accessed: %s\n",
		session.CreatedAt.Format(time.RFC3339), session.LastAccessedAt.Format(time.RFC3339))
	if session.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(session.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Level %d/%d\n", state.Level, state.LevelCount)
	fmt.Fprintf(&b, "Hero: (%d,%d)\n", state.Hero.X, state.Hero.Y)
	fmt.Fprintf(&b, "Crates on goal: %d/%d\n", state.CratesOnGoal, len(state.Crates))
	fmt.Fprintf(&b, "Steps: %d\n", state.StepCount)

	if state.Victory {
		b.WriteString("🎉 SOLVED!")
		if state.HasMoreLevels {
			b.WriteString(" Use next_level to continue.")
		} else {
			b.WriteString(" That was the last level of the pack.")
		}
		b.WriteString("\n")
	}

	b.WriteString("\nBoard:\n")
	for _, row := range state.Rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ Move successful (%s)\n", result.Outcome)
	} else {
		b.WriteString("✗ Move failed (blocked)\n")
	}
	if result.Message != "" {
		b.WriteString(result.Message + "\n")
	}
	if result.NewRecord {
		b.WriteString("🏆 New best result for this level!\n")
	}
	writeEvents(&b, result.Events)
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkMoveResult(result *service.BulkMoveResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Executed %d/%d moves (%d pushes)\n", result.MovesExecuted, result.RequestedMoves, result.Pushes)
	if result.Truncated {
		fmt.Fprintf(&b, "Request truncated to %d moves\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	fmt.Fprintf(&b, "Hero: (%d,%d) → (%d,%d)\n", result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y)
	if len(result.PossibleMoves) > 0 {
		fmt.Fprintf(&b, "Possible moves: %s\n", strings.Join(result.PossibleMoves, ","))
	}
	if result.NewRecord {
		b.WriteString("🏆 New best result for this level!\n")
	}
	writeEvents(&b, result.Events)
	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func writeEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, event := range events {
		fmt.Fprintf(b, "- %s: %s\n", event.Type, event.Message)
	}
}

func formatHint(hint *service.HintResult) string {
	if !hint.Solvable {
		return "No hint: " + hint.Message + "\n"
	}
	if hint.Length == 0 {
		return "The level is already solved.\n"
	}
	return fmt.Sprintf("%s\nNext move: %s\nFull solution (%d moves, %d pushes): %s\n",
		hint.Message, hint.Next, hint.Length, hint.Pushes, strings.Join(hint.Moves, ","))
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Journal (page %d/%d, %d actions total):\n\n", history.Page, history.TotalPages, history.TotalMoves)
	for _, entry := range history.Moves {
		fmt.Fprintf(&b, "%d. L%d %s %s (%d,%d)→(%d,%d) steps=%d\n",
			entry.MoveNumber, entry.Level, entry.Action, entry.Outcome,
			entry.From.X, entry.From.Y, entry.To.X, entry.To.Y, entry.StepCount)
	}
	if history.HasNext {
		b.WriteString("\nMore entries on the next page.\n")
	}
	return b.String()
}

func formatLeaderboard(pack string, results []records.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results recorded for pack %s yet.\n", pack)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Results for %s:\n\n", pack)
	level := 0
	for _, r := range results {
		if r.Level != level {
			level = r.Level
			fmt.Fprintf(&b, "Level %d:\n", level)
		}
		fmt.Fprintf(&b, "  %d steps by session %s (%s)\n", r.Steps, r.SessionID, r.SolvedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
