package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/app/files"
)

// FileCommand is the parent command for file management subcommands.
type FileCommand struct {
	Cmd *kingpin.CmdClause
}

// NewFileCommand returns the file parent command.
func NewFileCommand(app *kingpin.Application) *FileCommand {
	c := &FileCommand{}
	c.Cmd = app.Command("file", "Manage files.")
	return c
}

// newFilesService creates the files app service backed by the BFF client.
func newFilesService(rootCmd *RootCommand) (*files.Service, error) {
	logger := rootCmd.Logger

	client, err := newAPIClient(rootCmd, logger)
	if err != nil {
		return nil, err
	}

	svc, err := files.NewService(files.ServiceConfig{
		Manager: client,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create service: %w", err)
	}

	return svc, nil
}

// FileRenameCommand renames a file.
type FileRenameCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID  string
	newName string
}

// NewFileRenameCommand returns the file rename command.
func NewFileRenameCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FileRenameCommand {
	c := &FileRenameCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("rename", "Rename a file in place.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)
	c.Cmd.Arg("new-name", "New file name.").Required().StringVar(&c.newName)

	return c
}

func (c FileRenameCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileRenameCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	res, err := svc.Rename(ctx, c.fileID, c.newName)
	if err != nil {
		return fmt.Errorf("could not rename file: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Renamed %s to %s\n", res.ID, res.Name)
	return nil
}

// FileMvCommand moves a file to another path.
type FileMvCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID string
	dest   string
}

// NewFileMvCommand returns the file mv command.
func NewFileMvCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FileMvCommand {
	c := &FileMvCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("mv", "Move a file to another path.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)
	c.Cmd.Arg("dest", "Destination path.").Required().StringVar(&c.dest)

	return c
}

func (c FileMvCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileMvCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	res, err := svc.Move(ctx, c.fileID, c.dest)
	if err != nil {
		return fmt.Errorf("could not move file: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Moved %s to %s\n", res.ID, res.Path)
	return nil
}

// FileCpCommand copies a file to another path.
type FileCpCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID string
	dest   string
}

// NewFileCpCommand returns the file cp command.
func NewFileCpCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FileCpCommand {
	c := &FileCpCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("cp", "Copy a file to another path.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)
	c.Cmd.Arg("dest", "Destination path.").Required().StringVar(&c.dest)

	return c
}

func (c FileCpCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileCpCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	res, err := svc.Copy(ctx, c.fileID, c.dest)
	if err != nil {
		return fmt.Errorf("could not copy file: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Copied to %s (%s)\n", res.Path, res.ID)
	return nil
}

// FileRmCommand deletes a file.
type FileRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID string
}

// NewFileRmCommand returns the file rm command.
func NewFileRmCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FileRmCommand {
	c := &FileRmCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("rm", "Delete a file.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)

	return c
}

func (c FileRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileRmCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	if err := svc.Delete(ctx, c.fileID); err != nil {
		return fmt.Errorf("could not delete file: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "Deleted %s\n", c.fileID)
	return nil
}
