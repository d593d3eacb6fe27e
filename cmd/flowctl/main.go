package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/flowctl/cmd/flowctl/commands"
	"github.com/slok/flowctl/internal/log"
	loglogrus "github.com/slok/flowctl/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	// Optional .env file for local development, flags and envars win.
	_ = godotenv.Load()

	app := kingpin.New("flowctl", "Workflow BFF client: invoke workflows, track operations, upload files.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	invokeCmd := commands.NewInvokeCommand(rootCmd, app)
	watchCmd := commands.NewWatchCommand(rootCmd, app)
	cancelCmd := commands.NewCancelCommand(rootCmd, app)
	uploadCmd := commands.NewUploadCommand(rootCmd, app)

	// File subcommands share a parent command.
	fileCmd := commands.NewFileCommand(app)
	fileRenameCmd := commands.NewFileRenameCommand(rootCmd, fileCmd)
	fileMvCmd := commands.NewFileMvCommand(rootCmd, fileCmd)
	fileCpCmd := commands.NewFileCpCommand(rootCmd, fileCmd)
	fileRmCmd := commands.NewFileRmCommand(rootCmd, fileCmd)
	fileShareCmd := commands.NewFileShareCommand(rootCmd, fileCmd)
	filePermCmd := commands.NewFilePermCommand(rootCmd, fileCmd)

	cmds := map[string]commands.Command{
		invokeCmd.Name():     invokeCmd,
		watchCmd.Name():      watchCmd,
		cancelCmd.Name():     cancelCmd,
		uploadCmd.Name():     uploadCmd,
		fileRenameCmd.Name(): fileRenameCmd,
		fileMvCmd.Name():     fileMvCmd,
		fileCpCmd.Name():     fileCpCmd,
		fileRmCmd.Name():     fileRmCmd,
		fileShareCmd.Name():  fileShareCmd,
		filePermCmd.Name():   filePermCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Set logger.
	rootCmd.Logger = getLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	// If logger not disabled use logrus logger.
	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // By default logger goes to stderr (so it can split stdout prints).
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	// Log format.
	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled") // Will log only when debug enabled.

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
