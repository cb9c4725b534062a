package config

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/pairs-game/game/engine"
	"github.com/wricardo/pairs-game/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultConfigID is the preset used when a request names none
const DefaultConfigID = "classic"

//go:embed presets/*.json
var builtinPresets embed.FS

const presetDir = "presets"

// Manager handles preset loading and caching. Built-in presets are embedded in
// the binary; files in the optional config directory override them by id.
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	saved         map[string]*engine.GameConfig // saved without a config directory
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager. An empty configDir serves
// the built-in presets only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		info, err := os.Stat(configDir)
		if err != nil {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("config path is not a directory: %s", configDir)
		}
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		saved:     make(map[string]*engine.GameConfig),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// NormalizeID turns a preset name into the identifier used for lookups and
// file names: lower case, spaces replaced by underscores, no extension.
func NormalizeID(name string) string {
	id := strings.TrimSuffix(strings.TrimSpace(name), ".json")
	id = strings.ToLower(id)
	return strings.ReplaceAll(id, " ", "_")
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

// LoadConfig loads a preset by id
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := NormalizeID(name)
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrConfigNotFound, name)
	}

	m.mu.RLock()
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[id]; exists {
		return config, nil
	}
	return m.loadLocked(id)
}

// loadLocked resolves id from saved presets, then disk, then the embedded
// set. Callers hold the write lock.
func (m *Manager) loadLocked(id string) (*engine.GameConfig, error) {
	if saved, ok := m.saved[id]; ok {
		m.configs[id] = saved
		return saved, nil
	}

	data, err := m.readPreset(id)
	if err != nil {
		return nil, err
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, id, err)
	}

	m.configs[id] = config
	return config, nil
}

func (m *Manager) readPreset(id string) ([]byte, error) {
	filename := id + ".json"

	if m.configDir != "" {
		data, err := os.ReadFile(filepath.Join(m.configDir, filename))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	data, err := builtinPresets.ReadFile(presetDir + "/" + filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, id)
	}
	return data, nil
}

// ids returns every known preset id, sorted
func (m *Manager) ids() ([]string, error) {
	seen := make(map[string]bool)

	entries, err := builtinPresets.ReadDir(presetDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in presets: %w", err)
	}
	for _, entry := range entries {
		seen[strings.TrimSuffix(entry.Name(), ".json")] = true
	}

	if m.configDir != "" {
		entries, err := os.ReadDir(m.configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read config directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			seen[NormalizeID(entry.Name())] = true
		}
	}

	m.mu.RLock()
	for id := range m.saved {
		seen[id] = true
	}
	m.mu.RUnlock()

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Manager) isBuiltin(id string) bool {
	_, err := fs.Stat(builtinPresets, presetDir+"/"+id+".json")
	return err == nil
}

// ListConfigs returns information about all available presets, smallest
// board first
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	ids, err := m.ids()
	if err != nil {
		return nil, err
	}

	configs := make([]*service.ConfigInfo, 0, len(ids))
	for _, id := range ids {
		config, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid configs
			continue
		}

		configs = append(configs, &service.ConfigInfo{
			Filename:    id + ".json",
			ConfigID:    id,
			Name:        config.Name,
			Description: config.Description,
			TotalCards:  config.TotalCards,
			Pairs:       config.PairCount(),
			Rows:        config.Rows,
			Cols:        config.Cols,
			Builtin:     m.isBuiltin(id),
		})
	}

	sort.SliceStable(configs, func(i, j int) bool {
		return configs[i].TotalCards < configs[j].TotalCards
	})

	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// RefreshCache drops cached presets so edits in the config directory are
// picked up
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[string]*engine.GameConfig)
	return m.loadDefaultConfigLocked()
}

func (m *Manager) loadDefaultConfig() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadDefaultConfigLocked()
}

func (m *Manager) loadDefaultConfigLocked() error {
	config, err := m.loadLocked(DefaultConfigID)
	if err != nil {
		return err
	}
	m.defaultConfig = config
	return nil
}

// SaveConfig validates and stores a preset under the normalized name. With a
// config directory the preset is written to disk; otherwise it lives for the
// lifetime of the process.
func (m *Manager) SaveConfig(name string, config *engine.GameConfig) error {
	id := NormalizeID(name)
	if !validID(id) {
		return fmt.Errorf("%w: bad preset id %q", ErrInvalidConfig, name)
	}
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if m.configDir != "" {
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		if err := os.WriteFile(filepath.Join(m.configDir, id+".json"), data, 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.configDir == "" {
		m.saved[id] = config
	}
	m.configs[id] = config
	return nil
}
