package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/denimstock/denimstock/internal/shared"
)

// Object describes a stored archive.
type Object struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Store keeps archives by name.
type Store interface {
	Put(ctx context.Context, name string, r io.ReadSeeker, size int64) error
	Get(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]Object, error)
}

var archiveName = regexp.MustCompile(`^backup_\d{8}_\d{6}_[0-9a-f]{8}\.zip$`)

// ValidName reports whether name is an archive name this package generates.
func ValidName(name string) error {
	if !archiveName.MatchString(name) {
		return shared.Invalid("name", "not a backup archive name")
	}
	return nil
}

func newestFirst(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		if objects[i].ModifiedAt.Equal(objects[j].ModifiedAt) {
			return objects[i].Name > objects[j].Name
		}
		return objects[i].ModifiedAt.After(objects[j].ModifiedAt)
	})
}

// LocalStore keeps archives in a directory.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir when missing.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("backup: create dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, name string, r io.ReadSeeker, size int64) error {
	if err := ValidName(name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, name))
}

func (s *LocalStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, shared.ErrNotFound
	}
	return f, err
}

func (s *LocalStore) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	out := []Object{}
	for _, e := range entries {
		if e.IsDir() || !archiveName.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, Object{Name: e.Name(), Size: info.Size(), ModifiedAt: info.ModTime().UTC()})
	}
	newestFirst(out)
	return out, nil
}

var _ Store = (*LocalStore)(nil)
