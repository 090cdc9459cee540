package pipeline

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"apicsv/internal/record"
)

// Loader writes a record set to a CSV file under OutDir.
type Loader struct {
	OutDir   string
	Filename string           // defaults to data_extract_<YYYYMMDD_HHMMSS>.csv
	Now      func() time.Time // defaults to time.Now
}

// Write serializes the set and returns the path of the created file.
//
// The CSV is rendered into memory first and written with a single WriteFile,
// so a failed run never leaves a partial file behind. Header order is the
// set's first-seen column order; quoting is standard RFC 4180 via
// encoding/csv.
func (l Loader) Write(set *record.Set) (string, error) {
	now := l.Now
	if now == nil {
		now = time.Now
	}

	name := l.Filename
	if name == "" {
		name = "data_extract_" + now().Format("20060102_150405") + ".csv"
	}
	dir := l.OutDir
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	// strip any path components smuggled in through the filename
	path := filepath.Join(dir, filepath.Base(name))

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(set.Columns); err != nil {
		return "", &IOError{Op: "encode", Path: path, Err: err}
	}
	for _, rec := range set.Records {
		row := make([]string, len(set.Columns))
		for i, col := range set.Columns {
			row[i] = record.Render(rec[col])
		}
		if err := cw.Write(row); err != nil {
			return "", &IOError{Op: "encode", Path: path, Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", &IOError{Op: "encode", Path: path, Err: err}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}
