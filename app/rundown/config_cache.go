package rundown

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type ConfigCache struct {
	rundownsDir string
	cache       map[string]*Config
	mu          sync.RWMutex
}

func NewConfigCache(rundownsDir string) *ConfigCache {
	return &ConfigCache{
		rundownsDir: rundownsDir,
		cache:       make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.rundownsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.rundownsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive rundown name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		rundownName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(rundownName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "rundown", rundownName, "enabled", config.Settings.Enabled, "interval", config.Settings.Interval)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(rundownName string) (*Config, error) {
	configFile := cc.getConfigFilePath(rundownName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set rundown name from parameter
	config.Name = rundownName

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(rundownName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[rundownName]
	if !ok {
		return nil, fmt.Errorf("rundown config with name '%s' not found", rundownName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.Interval == 0 {
		config.Settings.Interval = 30
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Name == "" {
		return fmt.Errorf("rundown name is required")
	}
	if config.Path == "" {
		return fmt.Errorf("rundown path is required")
	}
	if config.Settings.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(rundownName string) string {
	return filepath.Join(cc.rundownsDir, rundownName+".yml")
}
