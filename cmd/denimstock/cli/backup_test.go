package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/backup"
)

type stubBackups struct {
	restoredSize int64
	storedName   string
	err          error
}

func (s *stubBackups) Create(context.Context) (backup.Object, error) {
	if s.err != nil {
		return backup.Object{}, s.err
	}
	return backup.Object{Name: "backup_20240314_020000_deadbeef.zip", Size: 512}, nil
}

func (s *stubBackups) List(context.Context) ([]backup.Object, error) {
	return []backup.Object{{Name: "backup_20240314_020000_deadbeef.zip", Size: 512, ModifiedAt: time.Date(2024, 3, 14, 2, 0, 0, 0, time.UTC)}}, nil
}

func (s *stubBackups) Restore(_ context.Context, _ io.ReaderAt, size int64) (backup.Manifest, error) {
	s.restoredSize = size
	return backup.Manifest{Version: 1, ID: "abc", Tables: []backup.TableEntry{{Name: "products", Rows: 3}, {Name: "stock", Rows: 4}}}, nil
}

func (s *stubBackups) RestoreStored(_ context.Context, name string) (backup.Manifest, error) {
	s.storedName = name
	return backup.Manifest{Version: 1, ID: "stored"}, nil
}

func TestCreateCommandJSON(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := NewBackupCLI(&stubBackups{}).CreateCommand(context.Background(), BackupOptions{JSONOutput: true, Stdout: stdout, Stderr: stderr})

	require.Equal(t, 0, code)
	require.Empty(t, stderr.String())
	var obj backup.Object
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &obj))
	require.Equal(t, int64(512), obj.Size)
}

func TestCreateCommandFailure(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := NewBackupCLI(&stubBackups{err: errors.New("disk full")}).CreateCommand(context.Background(), BackupOptions{Stdout: stdout, Stderr: stderr})

	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "disk full")
}

func TestListCommandTable(t *testing.T) {
	stdout := new(bytes.Buffer)
	code := NewBackupCLI(&stubBackups{}).ListCommand(context.Background(), BackupOptions{Stdout: stdout, Stderr: io.Discard})

	require.Equal(t, 0, code)
	require.Contains(t, stdout.String(), "NAME")
	require.Contains(t, stdout.String(), "2024-03-14 02:00:00")
}

func TestRestoreCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.zip")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	stub := &stubBackups{}
	stdout := new(bytes.Buffer)
	code := NewBackupCLI(stub).RestoreCommand(context.Background(), path, BackupOptions{Stdout: stdout, Stderr: io.Discard})

	require.Equal(t, 0, code)
	require.Equal(t, int64(10), stub.restoredSize)
	require.Contains(t, stdout.String(), "2 tables, 7 rows")
}

func TestRestoreCommandFallsBackToStore(t *testing.T) {
	stub := &stubBackups{}
	code := NewBackupCLI(stub).RestoreCommand(context.Background(), "backup_20240314_020000_deadbeef.zip", BackupOptions{Stdout: io.Discard, Stderr: io.Discard})

	require.Equal(t, 0, code)
	require.Equal(t, "backup_20240314_020000_deadbeef.zip", stub.storedName)
}

func TestRestoreCommandRequiresPath(t *testing.T) {
	stderr := new(bytes.Buffer)
	code := NewBackupCLI(&stubBackups{}).RestoreCommand(context.Background(), "", BackupOptions{Stdout: io.Discard, Stderr: stderr})
	require.Equal(t, 2, code)

	code = NewBackupCLI(&stubBackups{}).RestoreCommand(context.Background(), "/nonexistent/x.zip", BackupOptions{Stdout: io.Discard, Stderr: stderr})
	require.Equal(t, 1, code)
}
