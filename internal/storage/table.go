package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/jipange/internal/common"
)

// table is a header-labelled, comma-delimited record file. It is always
// read in full and replaced atomically, so readers never see a partial
// rewrite. Rows are returned in the table's own column order regardless
// of the column order found on disk.
type table struct {
	path    string
	columns []string
	mu      sync.Mutex
}

func newTable(path string, columns []string) *table {
	return &table{
		path:    path,
		columns: columns,
	}
}

// ensure creates the file holding the header and seed rows if it does not exist.
func (t *table) ensure(seed [][]string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := os.Stat(t.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", t.path, err)
	}

	return t.writeAll(seed)
}

// load returns every row.
func (t *table) load() ([][]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.readAll()
	if err != nil {
		common.LogError(err, "failed to read table", common.Fields{"path": t.path})
		return nil, err
	}
	return rows, nil
}

// update runs a read-modify-write cycle. When fn fails the file is left
// untouched and fn's error is returned as is.
func (t *table) update(fn func(rows [][]string) ([][]string, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.readAll()
	if err != nil {
		common.LogError(err, "failed to read table", common.Fields{"path": t.path})
		return err
	}

	rows, err = fn(rows)
	if err != nil {
		return err
	}

	return t.writeAll(rows)
}

func (t *table) readAll() ([][]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(t.path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s has no header row", common.ErrTableCorrupted, filepath.Base(t.path))
	}
	if err != nil {
		return nil, t.readError(err)
	}

	positions, err := t.columnPositions(header)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, t.readError(err)
		}

		row := make([]string, len(t.columns))
		for i, pos := range positions {
			if pos >= len(record) {
				line, _ := reader.FieldPos(0)
				return nil, fmt.Errorf("%w: %s line %d has %d fields, want %d",
					common.ErrTableCorrupted, filepath.Base(t.path), line, len(record), len(header))
			}
			row[i] = record[pos]
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// columnPositions maps each expected column to its index in header.
func (t *table) columnPositions(header []string) ([]int, error) {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	positions := make([]int, len(t.columns))
	for i, column := range t.columns {
		pos := slices.Index(names, column)
		if pos < 0 {
			return nil, fmt.Errorf("%w: %s is missing column %q",
				common.ErrTableCorrupted, filepath.Base(t.path), column)
		}
		positions[i] = pos
	}
	return positions, nil
}

func (t *table) readError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %s: %v", common.ErrTableCorrupted, filepath.Base(t.path), err)
	}
	return fmt.Errorf("failed to read %s: %w", filepath.Base(t.path), err)
}

// writeAll replaces the file with the header followed by rows. The data is
// written to a temporary file in the same directory and renamed over the
// original.
func (t *table) writeAll(rows [][]string) (err error) {
	dir := filepath.Dir(t.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	writer := csv.NewWriter(tmp)
	if err = writer.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err = writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err = os.Rename(tmpName, t.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(t.path), err)
	}

	common.LogDebug("table written", common.Fields{"path": t.path, "rows": len(rows)})
	return nil
}
