package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// maxArchiveSize bounds uploaded archives.
const maxArchiveSize = 512 << 20

// Notifier is told about finished snapshots.
type Notifier interface {
	BackupCompleted(ctx context.Context, name string, archive []byte) error
}

// Service creates, lists and restores archives.
type Service struct {
	db       Database
	store    Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires the database and the archive store. notifier may be nil.
func NewService(db Database, store Store, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, store: store, notifier: notifier, logger: logger, now: time.Now}
}

// Create dumps every table into a new archive and stores it.
func (s *Service) Create(ctx context.Context) (Object, error) {
	now := s.now().UTC()
	id := uuid.New()
	name := fmt.Sprintf("backup_%s_%s.zip", now.Format("20060102_150405"), id.String()[:8])

	var buf bytes.Buffer
	m, err := writeArchive(&buf, Manifest{ID: id.String(), CreatedAt: now}, func(table string, w io.Writer) (int64, error) {
		return s.db.Dump(ctx, table, w)
	})
	if err != nil {
		return Object{}, err
	}
	data := buf.Bytes()
	if err := s.store.Put(ctx, name, bytes.NewReader(data), int64(len(data))); err != nil {
		return Object{}, err
	}
	var rows int64
	for _, t := range m.Tables {
		rows += t.Rows
	}
	s.logger.Info("backup created", slog.String("name", name), slog.Int("bytes", len(data)), slog.Int64("rows", rows))
	if s.notifier != nil {
		if err := s.notifier.BackupCompleted(ctx, name, data); err != nil {
			s.logger.Warn("backup notification failed", slog.String("name", name), slog.Any("error", err))
		}
	}
	return Object{Name: name, Size: int64(len(data)), ModifiedAt: now}, nil
}

// List returns stored archives, newest first.
func (s *Service) List(ctx context.Context) ([]Object, error) {
	return s.store.List(ctx)
}

// Open streams a stored archive.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.store.Get(ctx, name)
}

// Restore validates the archive and replaces every table with its content.
// Nothing is changed when validation or any load fails.
func (s *Service) Restore(ctx context.Context, r io.ReaderAt, size int64) (Manifest, error) {
	a, err := openArchive(r, size)
	if err != nil {
		return Manifest{}, err
	}
	if err := s.db.Restore(ctx, Tables, a.open); err != nil {
		return Manifest{}, err
	}
	s.logger.Warn("database restored from archive", slog.String("archive_id", a.manifest.ID),
		slog.Time("created_at", a.manifest.CreatedAt))
	return a.manifest, nil
}

// RestoreStored restores a previously stored archive by name.
func (s *Service) RestoreStored(ctx context.Context, name string) (Manifest, error) {
	rc, err := s.store.Get(ctx, name)
	if err != nil {
		return Manifest{}, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(io.LimitReader(rc, maxArchiveSize+1))
	if err != nil {
		return Manifest{}, err
	}
	if len(data) > maxArchiveSize {
		return Manifest{}, fmt.Errorf("backup: archive %s exceeds %d bytes", name, maxArchiveSize)
	}
	return s.Restore(ctx, bytes.NewReader(data), int64(len(data)))
}
