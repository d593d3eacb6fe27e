package commands

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file (~/.flowctl/config.yaml).
// Flags and envars always take precedence over it.
type fileConfig struct {
	APIURL   string `yaml:"api_url"`
	TenantID string `yaml:"tenant_id"`
	Token    string `yaml:"token"`
}

// resolvedConfig is the effective configuration after merging flags, envars
// and the config file.
type resolvedConfig struct {
	APIURL          string
	TenantID        string
	Token           string
	PollInterval    time.Duration
	MaxPollAttempts int
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	cfg := &fileConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}

	return cfg, nil
}

func resolveConfig(rootCmd *RootCommand) (*resolvedConfig, error) {
	fileCfg, err := loadFileConfig(rootCmd.ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg := &resolvedConfig{
		APIURL:          firstNonEmpty(rootCmd.APIURL, fileCfg.APIURL),
		TenantID:        firstNonEmpty(rootCmd.TenantID, fileCfg.TenantID),
		Token:           firstNonEmpty(rootCmd.Token, fileCfg.Token),
		PollInterval:    rootCmd.PollInterval,
		MaxPollAttempts: rootCmd.MaxPollAttempts,
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("API URL is required (use --api-url, FLOWCTL_API_URL or the config file)")
	}
	if cfg.TenantID == "" {
		return nil, fmt.Errorf("tenant ID is required (use --tenant, FLOWCTL_TENANT_ID or the config file)")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("token is required (use --token, FLOWCTL_TOKEN or the config file)")
	}

	return cfg, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
