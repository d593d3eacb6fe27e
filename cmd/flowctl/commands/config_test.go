package commands

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileConfig(t *testing.T) {
	tests := map[string]struct {
		path   func(t *testing.T) string
		expCfg *fileConfig
		expErr bool
	}{
		"A valid config file is parsed": {
			path: func(t *testing.T) string {
				return writeConfigFile(t, `
api_url: https://bff.example.com
tenant_id: tenant-1
token: secret-token
`)
			},
			expCfg: &fileConfig{
				APIURL:   "https://bff.example.com",
				TenantID: "tenant-1",
				Token:    "secret-token",
			},
		},
		"A missing config file yields an empty config": {
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist.yaml")
			},
			expCfg: &fileConfig{},
		},
		"A malformed config file is an error": {
			path: func(t *testing.T) string {
				return writeConfigFile(t, "api_url: [not: valid")
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := loadFileConfig(test.path(t))

			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expCfg, cfg)
			}
		})
	}
}

func TestResolveConfig(t *testing.T) {
	tests := map[string]struct {
		rootCmd func(t *testing.T) *RootCommand
		expCfg  *resolvedConfig
		expErr  bool
	}{
		"Flags alone resolve the config": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath:      filepath.Join(t.TempDir(), "none.yaml"),
					APIURL:          "https://bff.example.com",
					TenantID:        "tenant-1",
					Token:           "secret-token",
					PollInterval:    2 * time.Second,
					MaxPollAttempts: 30,
				}
			},
			expCfg: &resolvedConfig{
				APIURL:          "https://bff.example.com",
				TenantID:        "tenant-1",
				Token:           "secret-token",
				PollInterval:    2 * time.Second,
				MaxPollAttempts: 30,
			},
		},
		"The config file fills what the flags leave empty": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath: writeConfigFile(t, `
api_url: https://bff.example.com
tenant_id: tenant-1
token: file-token
`),
					PollInterval: time.Second,
				}
			},
			expCfg: &resolvedConfig{
				APIURL:       "https://bff.example.com",
				TenantID:     "tenant-1",
				Token:        "file-token",
				PollInterval: time.Second,
			},
		},
		"Flags take precedence over the config file": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath: writeConfigFile(t, `
api_url: https://file.example.com
tenant_id: file-tenant
token: file-token
`),
					APIURL:       "https://flag.example.com",
					Token:        "flag-token",
					PollInterval: time.Second,
				}
			},
			expCfg: &resolvedConfig{
				APIURL:       "https://flag.example.com",
				TenantID:     "file-tenant",
				Token:        "flag-token",
				PollInterval: time.Second,
			},
		},
		"A config without an API URL anywhere is rejected": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath: filepath.Join(t.TempDir(), "none.yaml"),
					TenantID:   "tenant-1",
					Token:      "secret-token",
				}
			},
			expErr: true,
		},
		"A config without a tenant anywhere is rejected": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath: filepath.Join(t.TempDir(), "none.yaml"),
					APIURL:     "https://bff.example.com",
					Token:      "secret-token",
				}
			},
			expErr: true,
		},
		"A config without a token anywhere is rejected": {
			rootCmd: func(t *testing.T) *RootCommand {
				return &RootCommand{
					ConfigPath: filepath.Join(t.TempDir(), "none.yaml"),
					APIURL:     "https://bff.example.com",
					TenantID:   "tenant-1",
				}
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := resolveConfig(test.rootCmd(t))

			if test.expErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, test.expCfg, cfg)
			}
		})
	}
}
