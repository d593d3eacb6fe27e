package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/flowctl/internal/api"
	"github.com/slok/flowctl/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string

	ConfigPath      string
	APIURL          string
	TenantID        string
	Token           string
	PollInterval    time.Duration
	MaxPollAttempts int

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultConfigPath := filepath.Join(homedir.HomeDir(), ".flowctl", "config.yaml")
	app.Flag("config", "Path to the flowctl config file.").Envar("FLOWCTL_CONFIG").Default(defaultConfigPath).StringVar(&c.ConfigPath)
	app.Flag("api-url", "Workflow BFF base URL.").Envar("FLOWCTL_API_URL").StringVar(&c.APIURL)
	app.Flag("tenant", "Tenant ID sent on every request.").Envar("FLOWCTL_TENANT_ID").StringVar(&c.TenantID)
	app.Flag("token", "Bearer token sent on every request.").Envar("FLOWCTL_TOKEN").StringVar(&c.Token)
	app.Flag("poll-interval", "Delay between status requests while waiting.").Default("1s").DurationVar(&c.PollInterval)
	app.Flag("max-poll-attempts", "Max status requests per wait (0 = unbounded).").Default("0").IntVar(&c.MaxPollAttempts)

	return c
}

// newAPIClient creates the BFF API client from the resolved configuration
// (flags and envars first, config file as fallback).
func newAPIClient(rootCmd *RootCommand, logger log.Logger) (*api.Client, error) {
	cfg, err := resolveConfig(rootCmd)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.ClientConfig{
		BaseURL:  cfg.APIURL,
		TenantID: cfg.TenantID,
		Token:    api.StaticToken(cfg.Token),
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create API client: %w", err)
	}

	return client, nil
}
