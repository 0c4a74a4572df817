package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/denimstock/denimstock/internal/backup"
)

// BackupRunner is the subset of backup.Service used from the command line.
type BackupRunner interface {
	Create(ctx context.Context) (backup.Object, error)
	List(ctx context.Context) ([]backup.Object, error)
	Restore(ctx context.Context, r io.ReaderAt, size int64) (backup.Manifest, error)
	RestoreStored(ctx context.Context, name string) (backup.Manifest, error)
}

// BackupCLI offers snapshot and restore helpers for operators.
type BackupCLI struct {
	service BackupRunner
}

// NewBackupCLI constructs the helper.
func NewBackupCLI(service BackupRunner) *BackupCLI {
	return &BackupCLI{service: service}
}

// BackupOptions defines the shared output flags.
type BackupOptions struct {
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

func (o *BackupOptions) defaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
}

// CreateCommand writes a new archive and prints its name.
func (c *BackupCLI) CreateCommand(ctx context.Context, opts BackupOptions) int {
	opts.defaults()
	obj, err := c.service.Create(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "backup create: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		return encode(opts, "backup create", obj)
	}
	_, _ = fmt.Fprintf(opts.Stdout, "%s (%d bytes)\n", obj.Name, obj.Size)
	return 0
}

// ListCommand prints stored archives, newest first.
func (c *BackupCLI) ListCommand(ctx context.Context, opts BackupOptions) int {
	opts.defaults()
	objs, err := c.service.List(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "backup list: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		return encode(opts, "backup list", objs)
	}
	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, o := range objs {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\n", o.Name, o.Size, o.ModifiedAt.Format("2006-01-02 15:04:05"))
	}
	_ = tw.Flush()
	return 0
}

// RestoreCommand replaces the database with the archive at path. A bare
// archive name accepted by backup.ValidName that does not exist on disk is
// read from the configured store instead.
func (c *BackupCLI) RestoreCommand(ctx context.Context, path string, opts BackupOptions) int {
	opts.defaults()
	if path == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "backup restore: archive path is required")
		return 2
	}
	manifest, err := c.restore(ctx, path)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "backup restore: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		return encode(opts, "backup restore", manifest)
	}
	var rows int64
	for _, t := range manifest.Tables {
		rows += t.Rows
	}
	_, _ = fmt.Fprintf(opts.Stdout, "restored archive %s: %d tables, %d rows\n", manifest.ID, len(manifest.Tables), rows)
	return 0
}

func (c *BackupCLI) restore(ctx context.Context, path string) (backup.Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && backup.ValidName(path) == nil {
			return c.service.RestoreStored(ctx, path)
		}
		return backup.Manifest{}, err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return backup.Manifest{}, err
	}
	return c.service.Restore(ctx, f, info.Size())
}

func encode(opts BackupOptions, cmd string, v any) int {
	if err := json.NewEncoder(opts.Stdout).Encode(v); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "%s: encode json: %v\n", cmd, err)
		return 1
	}
	return 0
}
