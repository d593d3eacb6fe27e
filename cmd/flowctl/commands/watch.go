package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/app/watch"
	"github.com/slok/flowctl/internal/model"
)

// WatchCommand waits for an async operation to reach a terminal status.
type WatchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operationID string
	once        bool
}

// NewWatchCommand returns the watch command.
func NewWatchCommand(rootCmd *RootCommand, app *kingpin.Application) *WatchCommand {
	c := &WatchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("watch", "Wait for an operation to finish and print its result.")
	c.Cmd.Arg("operation-id", "Operation ID.").Required().StringVar(&c.operationID)
	c.Cmd.Flag("once", "Print the current status and exit without waiting.").BoolVar(&c.once)

	return c
}

func (c WatchCommand) Name() string { return c.Cmd.FullCommand() }

func (c WatchCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAPIClient(c.rootCmd, logger)
	if err != nil {
		return err
	}

	svc, err := watch.NewService(watch.ServiceConfig{
		Status:          client,
		PollInterval:    c.rootCmd.PollInterval,
		MaxPollAttempts: c.rootCmd.MaxPollAttempts,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if c.once {
		update, err := svc.Status(ctx, c.operationID)
		if err != nil {
			return fmt.Errorf("could not get operation status: %w", err)
		}

		fmt.Fprintf(c.rootCmd.Stdout, "%s\n", update.Status)
		return nil
	}

	result, err := svc.Run(ctx, watch.Request{
		OperationID: c.operationID,
		OnProgress: func(p model.OperationProgress) {
			fmt.Fprintf(c.rootCmd.Stderr, "\r%s: %3.0f%% %s", c.operationID, p.Percent, p.Message)
		},
	})
	if err != nil {
		return fmt.Errorf("could not wait for operation: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stdout, string(result))
	return nil
}
