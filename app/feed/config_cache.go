package feed

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxItems = 100
	defaultTimeout  = 10
)

type ConfigCache struct {
	feedsDir string
	cache    map[string]*Config
	mu       sync.RWMutex
}

func NewConfigCache(feedsDir string) *ConfigCache {
	return &ConfigCache{
		feedsDir: feedsDir,
		cache:    make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.feedsDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.feedsDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		fileName := filepath.Base(file)
		feedName := strings.TrimSuffix(fileName, ".yml")

		config, err := cc.LoadConfig(feedName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "feed", feedName, "enabled", config.Settings.Enabled, "url", config.URL)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(feedName string) (*Config, error) {
	configFile := cc.getConfigFilePath(feedName)
	feedConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	feedConfig.Name = feedName

	if err := cc.validateConfig(feedConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[feedConfig.Name] = feedConfig

	return feedConfig, nil
}

// AddURLs registers ad-hoc sources given on the command line. They are
// always enabled and named url-1, url-2, ... in argument order.
func (cc *ConfigCache) AddURLs(urls []string) error {
	for i, u := range urls {
		feedConfig := &Config{
			Name: fmt.Sprintf("url-%d", i+1),
			URL:  strings.TrimSpace(u),
			Settings: ConfigSettings{
				Enabled:  true,
				MaxItems: defaultMaxItems,
				Timeout:  defaultTimeout,
			},
		}
		if err := cc.validateConfig(feedConfig); err != nil {
			return fmt.Errorf("invalid feed URL %q: %w", u, err)
		}

		cc.mu.Lock()
		cc.cache[feedConfig.Name] = feedConfig
		cc.mu.Unlock()
	}
	return nil
}

func (cc *ConfigCache) GetConfig(feedName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	feedConfig, ok := cc.cache[feedName]
	if !ok {
		return nil, fmt.Errorf("feed config with name '%s' not found", feedName)
	}
	return feedConfig, nil
}

// GetEnabledConfigs returns enabled sources sorted by name so that item
// order is stable across requests.
func (cc *ConfigCache) GetEnabledConfigs() []*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make([]*Config, 0, len(cc.cache))
	for _, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs = append(enabledConfigs, v)
		}
	}
	sort.Slice(enabledConfigs, func(i, j int) bool {
		return enabledConfigs[i].Name < enabledConfigs[j].Name
	})
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

	feedConfig := Config{Settings: ConfigSettings{Enabled: true}}
	if err := yaml.Unmarshal(data, &feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = defaultMaxItems
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = defaultTimeout
	}

	return &feedConfig, nil
}

func (cc *ConfigCache) validateConfig(feedConfig *Config) error {
	if feedConfig == nil {
		return fmt.Errorf("feedConfig is nil")
	}

	if feedConfig.Name == "" {
		return fmt.Errorf("feed name is required")
	}
	if feedConfig.URL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if !strings.HasPrefix(feedConfig.URL, "http://") && !strings.HasPrefix(feedConfig.URL, "https://") {
		return fmt.Errorf("feed URL must be http(s): %s", feedConfig.URL)
	}

	nonNegativeFields := map[string]int{
		"max items": feedConfig.Settings.MaxItems,
		"timeout":   feedConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(feedName string) string {
	return filepath.Join(cc.feedsDir, feedName+".yml")
}
