package levels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wricardo/sokoban-game/game/engine"
)

// LevelReport summarizes a level text
type LevelReport struct {
	Number int      `json:"number,omitempty"`
	Title  string   `json:"title,omitempty"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Crates int      `json:"crates"`
	Goals  int      `json:"goals"`
	Walls  int      `json:"walls"`
	Issues []string `json:"issues,omitempty"`
	Notes  []string `json:"notes,omitempty"`
	Err    error    `json:"-"`
}

// OK reports whether the level is playable
func (r LevelReport) OK() bool {
	return len(r.Issues) == 0
}

// ValidateLevel parses a level text and checks it can be played
func ValidateLevel(text string) LevelReport {
	var report LevelReport

	level, err := engine.ParseLevel(text)
	if err != nil {
		report.Err = err
		report.Issues = append(report.Issues, err.Error())
		return report
	}

	report.Width = level.Grid.Width + 1
	report.Height = level.Grid.Height + 1
	report.Crates = len(level.Crates)
	report.Goals = engine.CountTiles(level.Grid, engine.Goal)
	report.Walls = engine.CountTiles(level.Grid, engine.Wall)

	if report.Crates > report.Goals {
		report.Issues = append(report.Issues,
			fmt.Sprintf("more crates (%d) than goals (%d)", report.Crates, report.Goals))
	}
	if report.Crates == 0 {
		report.Notes = append(report.Notes, "no crates: the level is won as soon as it loads")
	} else if report.Goals > report.Crates {
		report.Notes = append(report.Notes,
			fmt.Sprintf("%d goals stay empty when solved", report.Goals-report.Crates))
	}

	return report
}

// ValidatePackLevels reports on every level of a pack
func ValidatePackLevels(pack *Pack) []LevelReport {
	reports := make([]LevelReport, 0, len(pack.Levels))
	for i, def := range pack.Levels {
		report := ValidateLevel(def.Map)
		report.Number = i + 1
		report.Title = def.Title
		reports = append(reports, report)
	}
	return reports
}

// ValidatePack checks that a pack can be served
func ValidatePack(pack *Pack) error {
	var issues []string

	if strings.TrimSpace(pack.Name) == "" {
		issues = append(issues, "name is required")
	}
	if len(pack.Levels) == 0 {
		issues = append(issues, "pack has no levels")
	}
	for _, report := range ValidatePackLevels(pack) {
		for _, issue := range report.Issues {
			issues = append(issues, fmt.Sprintf("level %d (%s): %s", report.Number, report.Title, issue))
		}
	}

	if len(issues) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalidPack, pack.ID, strings.Join(issues, "; "))
	}
	return nil
}

// IsParseError reports whether a validation error came from the level parser
func IsParseError(err error) bool {
	var perr *engine.ParseError
	return errors.As(err, &perr)
}
