package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
)

// FileShareCommand grants time-limited anonymous access to a file.
type FileShareCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	fileID string
	ttl    time.Duration
}

// NewFileShareCommand returns the file share command.
func NewFileShareCommand(rootCmd *RootCommand, fileCmd *FileCommand) *FileShareCommand {
	c := &FileShareCommand{rootCmd: rootCmd}

	c.Cmd = fileCmd.Cmd.Command("share", "Create a share link for a file.")
	c.Cmd.Arg("file-id", "File ID.").Required().StringVar(&c.fileID)
	c.Cmd.Flag("ttl", "Link lifetime (0 = server default).").Default("0s").DurationVar(&c.ttl)

	return c
}

func (c FileShareCommand) Name() string { return c.Cmd.FullCommand() }

func (c FileShareCommand) Run(ctx context.Context) error {
	svc, err := newFilesService(c.rootCmd)
	if err != nil {
		return err
	}

	link, err := svc.Share(ctx, c.fileID, c.ttl)
	if err != nil {
		return fmt.Errorf("could not create share link: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "%s (expires %s)\n", link.URL, link.ExpiresAt.Format(time.RFC3339))
	return nil
}
