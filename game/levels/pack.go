package levels

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/sokoban-game/game/engine"
)

//go:embed packs/*.yaml
var embeddedPacks embed.FS

const (
	SourceEmbedded = "embedded"
	SourceFile     = "file"
)

// LevelDef is one level of a pack
type LevelDef struct {
	Title string `yaml:"title"`
	Map   string `yaml:"map"`
}

// Pack is an ordered collection of levels. Level numbers are 1-based.
type Pack struct {
	ID          string     `yaml:"-"`
	Source      string     `yaml:"-"`
	Filename    string     `yaml:"-"`
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Levels      []LevelDef `yaml:"levels"`
}

// LevelText returns the map of level n
func (p *Pack) LevelText(n int) (string, error) {
	if n < 1 || n > len(p.Levels) {
		return "", fmt.Errorf("%w: %d (pack %q has %d levels)", engine.ErrNoSuchLevel, n, p.ID, len(p.Levels))
	}
	return p.Levels[n-1].Map, nil
}

// Count returns the number of levels
func (p *Pack) Count() int {
	return len(p.Levels)
}

// Title returns the title of level n, or "" when out of range
func (p *Pack) Title(n int) string {
	if n < 1 || n > len(p.Levels) {
		return ""
	}
	return p.Levels[n-1].Title
}

// ParsePack decodes a YAML pack. The id is the name sessions refer to.
func ParsePack(id string, data []byte) (*Pack, error) {
	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", id, err)
	}
	pack.ID = id
	if pack.Name == "" {
		pack.Name = id
	}
	for i := range pack.Levels {
		pack.Levels[i].Map = strings.TrimRight(pack.Levels[i].Map, "\n")
		if pack.Levels[i].Title == "" {
			pack.Levels[i].Title = fmt.Sprintf("Level %d", i+1)
		}
	}
	return &pack, nil
}

func loadEmbedded(id string) (*Pack, error) {
	data, err := embeddedPacks.ReadFile("packs/" + id + ".yaml")
	if err != nil {
		return nil, ErrPackNotFound
	}
	pack, err := ParsePack(id, data)
	if err != nil {
		return nil, err
	}
	pack.Source = SourceEmbedded
	return pack, nil
}

func embeddedIDs() []string {
	entries, err := embeddedPacks.ReadDir("packs")
	if err != nil {
		return nil
	}
	var ids []string
	for _, entry := range entries {
		if isPackFile(entry.Name()) {
			ids = append(ids, packID(entry.Name()))
		}
	}
	return ids
}
