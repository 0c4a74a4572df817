package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/denimstock/denimstock/internal/shared"
)

type memoryDatabase struct {
	tables   map[string]string
	restored map[string]string
	failOn   string
}

func newMemoryDatabase() *memoryDatabase {
	tables := make(map[string]string, len(Tables))
	for _, t := range Tables {
		tables[t] = "id\n"
	}
	tables["warehouses"] = "id,name\n1,Main Warehouse\n2,Outlet\n"
	return &memoryDatabase{tables: tables}
}

func (m *memoryDatabase) Dump(ctx context.Context, table string, w io.Writer) (int64, error) {
	body := m.tables[table]
	if _, err := io.WriteString(w, body); err != nil {
		return 0, err
	}
	return int64(strings.Count(body, "\n") - 1), nil
}

func (m *memoryDatabase) Restore(ctx context.Context, tables []string, open func(string) (io.ReadCloser, error)) error {
	staged := make(map[string]string, len(tables))
	for _, t := range tables {
		if t == m.failOn {
			return errors.New("copy failed")
		}
		rc, err := open(t)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return err
		}
		staged[t] = string(data)
	}
	m.restored = staged
	return nil
}

type recordingNotifier struct {
	names []string
	size  int
}

func (n *recordingNotifier) BackupCompleted(ctx context.Context, name string, archive []byte) error {
	n.names = append(n.names, name)
	n.size = len(archive)
	return nil
}

func newTestBackupService(t *testing.T, db Database, notifier Notifier) (*Service, *LocalStore) {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(db, store, notifier, nil)
	svc.now = func() time.Time { return time.Date(2024, 7, 1, 23, 0, 5, 0, time.UTC) }
	return svc, store
}

func readStored(t *testing.T, store Store, name string) []byte {
	t.Helper()
	rc, err := store.Get(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestCreateThenRestoreRoundTrip(t *testing.T) {
	db := newMemoryDatabase()
	notifier := &recordingNotifier{}
	svc, store := newTestBackupService(t, db, notifier)
	ctx := context.Background()

	obj, err := svc.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, ValidName(obj.Name))
	require.True(t, strings.HasPrefix(obj.Name, "backup_20240701_230005_"))
	require.Equal(t, []string{obj.Name}, notifier.names)
	require.Equal(t, int(obj.Size), notifier.size)

	listed, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, obj.Name, listed[0].Name)

	data := readStored(t, store, obj.Name)
	m, err := svc.Restore(ctx, bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, ManifestVersion, m.Version)
	require.Len(t, m.Tables, len(Tables))
	require.Equal(t, db.tables, db.restored)
	for _, entry := range m.Tables {
		if entry.Name == "warehouses" {
			require.Equal(t, int64(2), entry.Rows)
		}
	}

	m2, err := svc.RestoreStored(ctx, obj.Name)
	require.NoError(t, err)
	require.Equal(t, m.ID, m2.ID)
}

func buildArchive(t *testing.T, m Manifest, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, body)
		require.NoError(t, err)
	}
	w, err := zw.Create(manifestName)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(w).Encode(m))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func completeManifest() (Manifest, map[string]string) {
	m := Manifest{Version: ManifestVersion, ID: "x"}
	files := map[string]string{}
	for _, table := range Tables {
		m.Tables = append(m.Tables, TableEntry{Name: table, File: tableFile(table)})
		files[tableFile(table)] = "id\n"
	}
	return m, files
}

func TestRestoreRejectsInvalidArchives(t *testing.T) {
	ctx := context.Background()

	cases := map[string]func() []byte{
		"not a zip": func() []byte { return []byte("definitely not zip") },
		"wrong version": func() []byte {
			m, files := completeManifest()
			m.Version = 99
			return buildArchive(t, m, files)
		},
		"missing table": func() []byte {
			m, files := completeManifest()
			m.Tables = m.Tables[1:]
			return buildArchive(t, m, files)
		},
		"missing data file": func() []byte {
			m, files := completeManifest()
			delete(files, tableFile("sales"))
			return buildArchive(t, m, files)
		},
		"duplicate table": func() []byte {
			m, files := completeManifest()
			m.Tables[1] = m.Tables[0]
			return buildArchive(t, m, files)
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			db := newMemoryDatabase()
			svc, _ := newTestBackupService(t, db, nil)
			data := build()
			_, err := svc.Restore(ctx, bytes.NewReader(data), int64(len(data)))
			require.ErrorIs(t, err, shared.ErrValidation)
			require.Nil(t, db.restored)
		})
	}
}

func TestRestoreFailureLeavesDatabaseUntouched(t *testing.T) {
	db := newMemoryDatabase()
	db.failOn = "payments"
	svc, _ := newTestBackupService(t, db, nil)
	m, files := completeManifest()
	data := buildArchive(t, m, files)

	_, err := svc.Restore(context.Background(), bytes.NewReader(data), int64(len(data)))
	require.EqualError(t, err, "copy failed")
	require.Nil(t, db.restored)
}

func TestLocalStoreRejectsForeignNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Get(ctx, "../etc/passwd")
	require.ErrorIs(t, err, shared.ErrValidation)
	err = store.Put(ctx, "notes.txt", bytes.NewReader(nil), 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = store.Get(ctx, "backup_20240101_000000_deadbeef.zip")
	require.ErrorIs(t, err, shared.ErrNotFound)
}
