// Package backup snapshots every table into a zip archive and restores the
// database from one.
package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/denimstock/denimstock/internal/shared"
)

// ManifestVersion is bumped whenever the archive layout changes.
const ManifestVersion = 1

const manifestName = "manifest.json"

// Tables lists every table in foreign key order. Restore loads them in this
// order.
var Tables = []string{
	"users",
	"warehouses",
	"products",
	"stock",
	"clients",
	"invoices",
	"invoice_items",
	"payments",
	"sales",
	"settings",
	"audit_logs",
	"idempotency_keys",
}

// TableEntry records one dumped table.
type TableEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
	Rows int64  `json:"rows"`
}

// Manifest describes an archive.
type Manifest struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Tables    []TableEntry `json:"tables"`
}

func tableFile(name string) string { return "tables/" + name + ".csv" }

// writeArchive streams each table through dump into a zip archive followed by
// the manifest.
func writeArchive(w io.Writer, m Manifest, dump func(table string, w io.Writer) (int64, error)) (Manifest, error) {
	zw := zip.NewWriter(w)
	m.Version = ManifestVersion
	m.Tables = m.Tables[:0]
	for _, table := range Tables {
		fw, err := zw.Create(tableFile(table))
		if err != nil {
			return Manifest{}, err
		}
		rows, err := dump(table, fw)
		if err != nil {
			return Manifest{}, fmt.Errorf("backup: dump %s: %w", table, err)
		}
		m.Tables = append(m.Tables, TableEntry{Name: table, File: tableFile(table), Rows: rows})
	}
	mw, err := zw.Create(manifestName)
	if err != nil {
		return Manifest{}, err
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return Manifest{}, err
	}
	if err := zw.Close(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// archive is an opened, validated backup.
type archive struct {
	manifest Manifest
	files    map[string]*zip.File
}

// openArchive reads the manifest and checks that every expected table is
// present exactly once.
func openArchive(r io.ReaderAt, size int64) (*archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, shared.Invalid("archive", "not a zip archive")
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	mf, ok := files[manifestName]
	if !ok {
		return nil, shared.Invalid("archive", "manifest.json missing")
	}
	rc, err := mf.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	var m Manifest
	if err := json.NewDecoder(rc).Decode(&m); err != nil {
		return nil, shared.Invalid("archive", "manifest.json is not valid JSON")
	}
	if m.Version != ManifestVersion {
		return nil, shared.Invalid("archive", fmt.Sprintf("unsupported manifest version %d", m.Version))
	}
	listed := make(map[string]TableEntry, len(m.Tables))
	for _, t := range m.Tables {
		if _, dup := listed[t.Name]; dup {
			return nil, shared.Invalid("archive", "table "+t.Name+" listed twice")
		}
		listed[t.Name] = t
	}
	if len(listed) != len(Tables) {
		return nil, shared.Invalid("archive", fmt.Sprintf("expected %d tables, found %d", len(Tables), len(listed)))
	}
	for _, table := range Tables {
		entry, ok := listed[table]
		if !ok {
			return nil, shared.Invalid("archive", "table "+table+" missing from manifest")
		}
		if _, ok := files[entry.File]; !ok {
			return nil, shared.Invalid("archive", "data file for "+table+" missing")
		}
	}
	return &archive{manifest: m, files: files}, nil
}

func (a *archive) open(table string) (io.ReadCloser, error) {
	for _, t := range a.manifest.Tables {
		if t.Name == table {
			return a.files[t.File].Open()
		}
	}
	return nil, fmt.Errorf("backup: table %s not in archive", table)
}
