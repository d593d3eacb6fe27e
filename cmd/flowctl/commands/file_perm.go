package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/model"
)

// FilePermCommand grants or changes a principal's access to a file.
type FilePermCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID    string
	principal string
	access    string
}

// NewFilePermCommand returns the file perm command.
func NewFilePermCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FilePermCommand {
	c := &FilePermCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("perm", "Update a file permission.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)
	c.Cmd.Arg("principal", "User or group receiving the permission.").Required().StringVar(&c.principal)
	c.Cmd.Arg("access", "Access level.").Required().EnumVar(&c.access,
		string(model.PermissionAccessRead), string(model.PermissionAccessWrite), string(model.PermissionAccessOwner))

	return c
}

func (c FilePermCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilePermCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	err = svc.SetPermission(ctx, c.fileID, model.PermissionUpdate{
		Principal: c.principal,
		Access:    model.PermissionAccess(c.access),
	})
	if err != nil {
		return fmt.Errorf("could not update permission: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Granted %s to %s on %s\n", c.access, c.principal, c.fileID)
	return nil
}
