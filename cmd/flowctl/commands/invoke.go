package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/app/invoke"
	"github.com/slok/flowctl/internal/model"
)

// InvokeCommand invokes a workflow on the BFF.
type InvokeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	kind     string
	payload  string
	syncHint bool
	wait     bool
}

// NewInvokeCommand returns the invoke command.
func NewInvokeCommand(rootCmd *RootCommand, app *kingpin.Application) *InvokeCommand {
	c := &InvokeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("invoke", "Invoke a workflow (e.g. install-module).")
	c.Cmd.Arg("kind", "Workflow kind.").Required().StringVar(&c.kind)
	c.Cmd.Flag("payload", "Workflow input as a JSON object.").Default("{}").StringVar(&c.payload)
	c.Cmd.Flag("sync", "Hint the server to execute inline (advisory).").BoolVar(&c.syncHint)
	c.Cmd.Flag("wait", "Wait for async operations to finish.").BoolVar(&c.wait)

	return c
}

func (c InvokeCommand) Name() string { return c.Cmd.FullCommand() }

func (c InvokeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	if !json.Valid([]byte(c.payload)) {
		return fmt.Errorf("payload is not valid JSON")
	}

	client, err := newAPIClient(c.rootCmd, logger)
	if err != nil {
		return err
	}

	svc, err := invoke.NewService(invoke.ServiceConfig{
		Invoker:         client,
		Status:          client,
		PollInterval:    c.rootCmd.PollInterval,
		MaxPollAttempts: c.rootCmd.MaxPollAttempts,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	resp, err := svc.Run(ctx, invoke.Request{
		Kind:        c.kind,
		Payload:     json.RawMessage(c.payload),
		Synchronous: c.syncHint,
		Wait:        c.wait,
		OnProgress: func(p model.OperationProgress) {
			fmt.Fprintf(c.rootCmd.Stderr, "\r%s: %3.0f%% %s", c.kind, p.Percent, p.Message)
		},
	})
	if err != nil {
		return fmt.Errorf("could not invoke workflow: %w", err)
	}

	if resp.Result != nil {
		fmt.Fprintln(c.rootCmd.Stdout, string(resp.Result))
		return nil
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Operation %s accepted (poll with: flowctl watch %s)\n", resp.Handle.OperationID, resp.Handle.OperationID)
	return nil
}
