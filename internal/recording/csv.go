// Package recording reads and writes labeled recordings stored as CSV.
//
// The first column is the time index in seconds; every other column is a
// named value column. Label sequences are stored as integer-valued columns.
package recording

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/banshee-data/gesture.report/internal/conditioning"
)

// ErrFormat is returned for malformed recordings.
var ErrFormat = errors.New("malformed recording")

// ReadTable parses a CSV recording.
func ReadTable(r io.Reader) (conditioning.Table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return conditioning.Table{}, fmt.Errorf("%w: missing header", ErrFormat)
	}
	if err != nil {
		return conditioning.Table{}, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 1 {
		return conditioning.Table{}, fmt.Errorf("%w: empty header", ErrFormat)
	}

	t := conditioning.Table{Index: []float64{}, Columns: make([]conditioning.Column, len(header)-1)}
	for i, name := range header[1:] {
		t.Columns[i] = conditioning.Column{Name: name, Values: []float64{}}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return conditioning.Table{}, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		ts, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return conditioning.Table{}, fmt.Errorf("%w: invalid time index at line %d: %v", ErrFormat, line, err)
		}
		t.Index = append(t.Index, ts)
		for i, field := range record[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return conditioning.Table{}, fmt.Errorf("%w: invalid %s value at line %d: %v",
					ErrFormat, t.Columns[i].Name, line, err)
			}
			t.Columns[i].Values = append(t.Columns[i].Values, v)
		}
	}
	return t, nil
}

// WriteTable writes t as CSV with an index column named "time".
func WriteTable(w io.Writer, t conditioning.Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	writer := csv.NewWriter(w)

	row := make([]string, len(t.Columns)+1)
	row[0] = "time"
	copy(row[1:], t.Names())
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r := 0; r < t.Rows(); r++ {
		// Without an index the row number stands in for the time.
		if t.Index != nil {
			row[0] = formatFloat(t.Index[r])
		} else {
			row[0] = strconv.Itoa(r)
		}
		for i, c := range t.Columns {
			row[i+1] = formatFloat(c.Values[r])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFile reads the recording at path.
func ReadFile(path string) (conditioning.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return conditioning.Table{}, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return conditioning.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t conditioning.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	if err := WriteTable(f, t); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// IntColumn returns the named column as a label sequence. Every value must
// be integral.
func IntColumn(t conditioning.Table, name string) ([]int, error) {
	c, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: no column %q", ErrFormat, name)
	}
	out := make([]int, len(c.Values))
	for i, v := range c.Values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: column %q row %d holds non-integer %g", ErrFormat, name, i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// WithIntColumn returns a copy of t with the label sequence stored under
// name, replacing any column of that name.
func WithIntColumn(t conditioning.Table, name string, seq []int) conditioning.Table {
	values := make([]float64, len(seq))
	for i, v := range seq {
		values[i] = float64(v)
	}
	return t.With(conditioning.Column{Name: name, Values: values})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
