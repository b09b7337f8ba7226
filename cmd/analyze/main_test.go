package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/solver"
)

func TestAnalyzeLevel_Solvable(t *testing.T) {
	a := analyzeLevel(1, "Corridor", "######\n#@ $.#\n######")

	if a.ParseErr != nil {
		t.Fatalf("Unexpected parse error: %v", a.ParseErr)
	}
	if a.Width != 6 || a.Height != 3 {
		t.Errorf("Expected 6x3, got %dx%d", a.Width, a.Height)
	}
	if a.Crates != 1 || a.Goals != 1 {
		t.Errorf("Expected 1 crate and 1 goal, got %d and %d", a.Crates, a.Goals)
	}
	if a.Reachable != 4 {
		t.Errorf("Expected 4 reachable cells, got %d", a.Reachable)
	}
	if !a.Solved || a.Moves != 2 || a.Pushes != 1 {
		t.Errorf("Expected a 2 move solution with 1 push, got %+v", a)
	}
}

func TestAnalyzeLevel_Problems(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(*testing.T, LevelAnalysis)
	}{
		{
			name: "parse error",
			text: "#####\n#$.##\n#####",
			check: func(t *testing.T, a LevelAnalysis) {
				if a.ParseErr == nil {
					t.Error("Expected parse error for a level without hero")
				}
			},
		},
		{
			name: "cornered crate",
			text: "#####\n#@ $#\n#.  #\n#####",
			check: func(t *testing.T, a LevelAnalysis) {
				if len(a.CorneredCrates) != 1 || a.CorneredCrates[0] != (engine.Position{X: 3, Y: 1}) {
					t.Errorf("Expected cornered crate at (3,1), got %v", a.CorneredCrates)
				}
				if a.Solved || !errors.Is(a.SolveErr, solver.ErrUnsolvable) {
					t.Errorf("Expected unsolvable, got %v", a.SolveErr)
				}
			},
		},
		{
			name: "goal behind wall",
			text: "#######\n#@$ #.#\n#######",
			check: func(t *testing.T, a LevelAnalysis) {
				if len(a.UnreachableGoals) != 1 || a.UnreachableGoals[0] != (engine.Position{X: 5, Y: 1}) {
					t.Errorf("Expected unreachable goal at (5,1), got %v", a.UnreachableGoals)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, analyzeLevel(1, tt.name, tt.text))
		})
	}
}

func TestIsCorner(t *testing.T) {
	level, err := engine.ParseLevel("#####\n#@  #\n#   #\n#####")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		x, y     int
		expected bool
	}{
		{1, 1, true},
		{3, 1, true},
		{2, 1, false},
		{2, 2, false},
		{3, 2, true},
	}

	for _, tt := range tests {
		if got := isCorner(level.Grid, tt.x, tt.y); got != tt.expected {
			t.Errorf("isCorner(%d,%d) = %v, expected %v", tt.x, tt.y, got, tt.expected)
		}
	}
}

func TestLoadPacks(t *testing.T) {
	packs, err := loadPacks(nil)
	if err != nil {
		t.Fatalf("loadPacks failed: %v", err)
	}
	if len(packs) == 0 || packs[0].ID != "classic" {
		t.Fatalf("Expected embedded classic pack, got %d packs", len(packs))
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "mine.yaml")
	content := "name: Mine\nlevels:\n  - map: |\n      #####\n      #@$.#\n      #####\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	packs, err = loadPacks([]string{path})
	if err != nil {
		t.Fatalf("loadPacks failed: %v", err)
	}
	if len(packs) != 1 || packs[0].ID != "mine" || packs[0].Count() != 1 {
		t.Errorf("Unexpected packs %+v", packs)
	}

	if _, err := loadPacks([]string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestPrintAnalysis(t *testing.T) {
	var out bytes.Buffer
	printAnalysis(&out, analyzeLevel(2, "Stuck", "#####\n#@ $#\n#.  #\n#####"))

	for _, want := range []string{"Level 2: Stuck", "Size: 5 x 4", "start in a corner", "❌ Unsolvable"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in output:\n%s", want, out.String())
		}
	}
}
