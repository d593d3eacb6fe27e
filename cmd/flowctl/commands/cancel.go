package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/app/cancel"
)

// CancelCommand requests cancellation of an in-flight operation.
type CancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	operationID string
}

// NewCancelCommand returns the cancel command.
func NewCancelCommand(rootCmd *RootCommand, app *kingpin.Application) *CancelCommand {
	c := &CancelCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cancel", "Request cancellation of an in-flight operation.")
	c.Cmd.Arg("operation-id", "Operation ID.").Required().StringVar(&c.operationID)

	return c
}

func (c CancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c CancelCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAPIClient(c.rootCmd, logger)
	if err != nil {
		return err
	}

	svc, err := cancel.NewService(cancel.ServiceConfig{
		Canceller: client,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if err := svc.Run(ctx, cancel.Request{OperationID: c.operationID}); err != nil {
		return fmt.Errorf("could not cancel operation: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Cancellation requested for %s (terminal status still arrives through watch)\n", c.operationID)
	return nil
}
