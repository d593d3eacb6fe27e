package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/flowctl/internal/api"
	appupload "github.com/slok/flowctl/internal/app/upload"
	"github.com/slok/flowctl/internal/model"
)

// UploadCommand uploads one or more files to the BFF.
type UploadCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	paths     []string
	dest      string
	settleAll bool
}

// NewUploadCommand returns the upload command.
func NewUploadCommand(rootCmd *RootCommand, app *kingpin.Application) *UploadCommand {
	c := &UploadCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("upload", "Upload files with progress tracking.")
	c.Cmd.Arg("paths", "Local files to upload.").Required().ExistingFilesVar(&c.paths)
	c.Cmd.Flag("dest", "Destination path on the server.").Default("/").StringVar(&c.dest)
	c.Cmd.Flag("settle-all", "Wait for every file instead of failing fast on the first error.").BoolVar(&c.settleAll)

	return c
}

func (c UploadCommand) Name() string { return c.Cmd.FullCommand() }

func (c UploadCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	client, err := newAPIClient(c.rootCmd, logger)
	if err != nil {
		return err
	}

	svc, err := appupload.NewService(appupload.ServiceConfig{
		Transport: client,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	files := make([]api.UploadFile, 0, len(c.paths))
	closers := make([]*os.File, 0, len(c.paths))
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	for _, path := range c.paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("could not open %s: %w", path, err)
		}
		closers = append(closers, f)

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("could not stat %s: %w", path, err)
		}

		files = append(files, api.UploadFile{
			Name:      filepath.Base(path),
			SizeBytes: info.Size(),
			Content:   f,
		})
	}

	onBatchProgress := func(snapshot []model.UploadProgress) {
		c.renderProgress(snapshot)
	}

	if c.settleAll {
		result, err := svc.UploadAll(ctx, files, c.dest, onBatchProgress)
		if err != nil {
			return fmt.Errorf("could not upload files: %w", err)
		}

		fmt.Fprintln(c.rootCmd.Stderr)
		for _, r := range result.Succeeded {
			fmt.Fprintf(c.rootCmd.Stdout, "Uploaded %s (%s)\n", r.Name, r.ID)
		}
		for _, f := range result.Failed {
			fmt.Fprintf(c.rootCmd.Stdout, "Failed %s: %v\n", f.Progress.FileName, f.Err)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d of %d files failed", len(result.Failed), len(files))
		}
		return nil
	}

	resources, err := svc.UploadMany(ctx, files, c.dest, onBatchProgress)
	if err != nil {
		return fmt.Errorf("could not upload files: %w", err)
	}

	fmt.Fprintln(c.rootCmd.Stderr)
	for _, r := range resources {
		fmt.Fprintf(c.rootCmd.Stdout, "Uploaded %s (%s)\n", r.Name, r.ID)
	}

	return nil
}

// renderProgress rewrites one aggregate progress line for the whole batch.
func (c UploadCommand) renderProgress(snapshot []model.UploadProgress) {
	var loaded, total int64
	settled := 0
	for _, p := range snapshot {
		loaded += p.LoadedBytes
		total += p.TotalBytes
		if p.Status == model.UploadStatusCompleted || p.Status == model.UploadStatusFailed {
			settled++
		}
	}

	if total <= 0 {
		return
	}

	pct := float64(loaded) / float64(total) * 100
	fmt.Fprintf(c.rootCmd.Stderr, "\r  %3.0f%% %s / %s (%d/%d files)", pct, formatSize(loaded), formatSize(total), settled, len(snapshot))
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
