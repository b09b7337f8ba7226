package levels

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/sokoban-game/game/engine"
	"github.com/wricardo/sokoban-game/game/service"
)

// DefaultPack is the pack used when none is requested
const DefaultPack = "classic"

var (
	ErrPackNotFound = errors.New("pack not found")
	ErrInvalidPack  = errors.New("invalid pack")
)

// Manager handles level pack loading and caching. Packs in the directory
// shadow embedded packs with the same name.
type Manager struct {
	dir         string
	defaultPack *Pack
	packs       map[string]*Pack
	mu          sync.RWMutex
}

// NewManager creates a pack manager over dir. An empty dir serves the
// embedded packs only.
func NewManager(dir string) (*Manager, error) {
	if dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("levels directory does not exist: %s", dir)
		}
	}

	m := &Manager{
		dir:   dir,
		packs: make(map[string]*Pack),
	}

	if err := m.loadDefaultPack(); err != nil {
		return nil, fmt.Errorf("failed to load default pack: %w", err)
	}

	return m, nil
}

// LoadPack loads a pack by name
func (m *Manager) LoadPack(name string) (*Pack, error) {
	name = packID(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, ErrPackNotFound
	}

	m.mu.RLock()
	if pack, exists := m.packs[name]; exists {
		m.mu.RUnlock()
		return pack, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pack, exists := m.packs[name]; exists {
		return pack, nil
	}

	pack, err := m.readPack(name)
	if err != nil {
		return nil, err
	}

	if err := ValidatePack(pack); err != nil {
		return nil, err
	}

	m.packs[name] = pack
	return pack, nil
}

// readPack reads a pack from the directory, falling back to the embedded set
func (m *Manager) readPack(name string) (*Pack, error) {
	if m.dir != "" {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(m.dir, name+ext)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return nil, fmt.Errorf("failed to read pack file: %w", err)
			}

			pack, err := ParsePack(name, data)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidPack, err)
			}
			pack.Source = SourceFile
			pack.Filename = filepath.Base(path)
			return pack, nil
		}
	}

	return loadEmbedded(name)
}

// LoadCatalog returns a pack as an engine catalog
func (m *Manager) LoadCatalog(name string) (engine.Catalog, error) {
	return m.LoadPack(name)
}

// DescribePack returns a pack with per-level summaries
func (m *Manager) DescribePack(name string) (*service.PackDetail, error) {
	pack, err := m.LoadPack(name)
	if err != nil {
		return nil, err
	}

	detail := &service.PackDetail{PackInfo: *packInfo(pack)}
	for i, def := range pack.Levels {
		report := ValidateLevel(def.Map)
		detail.Levels = append(detail.Levels, service.LevelSummary{
			Number: i + 1,
			Title:  def.Title,
			Rows:   strings.Split(def.Map, "\n"),
			Width:  report.Width,
			Height: report.Height,
			Crates: report.Crates,
			Goals:  report.Goals,
		})
	}
	return detail, nil
}

// PackNames returns the ids of every embedded and on-disk pack, sorted
func (m *Manager) PackNames() ([]string, error) {
	names := make(map[string]bool)
	for _, id := range embeddedIDs() {
		names[id] = true
	}

	if m.dir != "" {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read levels directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isPackFile(entry.Name()) {
				continue
			}
			names[packID(entry.Name())] = true
		}
	}

	ids := make([]string, 0, len(names))
	for name := range names {
		ids = append(ids, name)
	}
	sort.Strings(ids)
	return ids, nil
}

// InspectPack reads a pack without validating or caching it
func (m *Manager) InspectPack(name string) (*Pack, error) {
	name = packID(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, ErrPackNotFound
	}
	return m.readPack(name)
}

// ListPacks returns information about all valid packs
func (m *Manager) ListPacks() ([]*service.PackInfo, error) {
	names, err := m.PackNames()
	if err != nil {
		return nil, err
	}

	packs := make([]*service.PackInfo, 0, len(names))
	for _, name := range names {
		pack, err := m.LoadPack(name)
		if err != nil {
			log.Warn().Err(err).Str("pack", name).Msg("skipping invalid pack")
			continue
		}
		packs = append(packs, packInfo(pack))
	}
	return packs, nil
}

// GetDefault returns the default pack
func (m *Manager) GetDefault() *Pack {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPack
}

// DefaultPackName returns the id of the default pack
func (m *Manager) DefaultPackName() string {
	return m.GetDefault().ID
}

// SetDefault sets the default pack by name
func (m *Manager) SetDefault(name string) error {
	pack, err := m.LoadPack(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPack = pack
	return nil
}

// RefreshCache drops every cached pack and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defaultID := DefaultPack
	if m.defaultPack != nil {
		defaultID = m.defaultPack.ID
	}
	m.packs = make(map[string]*Pack)
	m.mu.Unlock()

	if err := m.SetDefault(defaultID); err != nil {
		log.Warn().Err(err).Str("pack", defaultID).Msg("default pack unavailable after reload")
		return m.loadDefaultPack()
	}
	return nil
}

// loadDefaultPack loads classic, or the first valid pack when classic is broken
func (m *Manager) loadDefaultPack() error {
	pack, err := m.LoadPack(DefaultPack)
	if err != nil {
		packs, listErr := m.ListPacks()
		if listErr != nil || len(packs) == 0 {
			return err
		}
		pack, err = m.LoadPack(packs[0].PackID)
		if err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.defaultPack = pack
	m.mu.Unlock()
	return nil
}

func packInfo(pack *Pack) *service.PackInfo {
	return &service.PackInfo{
		PackID:      pack.ID,
		Filename:    pack.Filename,
		Name:        pack.Name,
		Description: pack.Description,
		LevelCount:  pack.Count(),
		Source:      pack.Source,
	}
}

func isPackFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// packID strips a pack file extension
func packID(name string) string {
	if isPackFile(name) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
