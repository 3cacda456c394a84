package metrics

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/lockgraph/lockgraph/pkg/errors"
)

// Sink receives metrics rows.
type Sink interface {
	Append(ctx context.Context, row Row) error
	Close(ctx context.Context) error
}

// CSVSink appends rows to a CSV results table. The header is written only
// when the file is empty; earlier rows are never rewritten.
type CSVSink struct {
	path string
}

// NewCSVSink returns a sink appending to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the results file path.
func (s *CSVSink) Path() string { return s.path }

// Append writes one row, creating the file with a header if needed.
func (s *CSVSink) Append(_ context.Context, row Row) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header()); err != nil {
			return err
		}
	}
	if err := w.Write(row.Record()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return f.Close()
}

// Close is a no-op; every Append opens and closes the file.
func (s *CSVSink) Close(context.Context) error { return nil }

// ReadCSV loads a results table. Columns are matched by header name, so
// tables with extra or reordered columns still load; missing metrics are 0.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "results table %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

func readCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read header")
	}
	projectCol := slices.Index(header, ProjectColumn)
	if projectCol < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "results table has no %s column", ProjectColumn)
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d", line)
		}
		// a second header from concatenated tables
		if slices.Equal(rec, header) {
			continue
		}

		row := Row{Values: make(map[string]float64, len(header))}
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			if i == projectCol {
				row.Project = rec[i]
				continue
			}
			if rec[i] == "" {
				continue
			}
			v, err := strconv.ParseFloat(rec[i], 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d column %s", line, col)
			}
			row.Values[col] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
