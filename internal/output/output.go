package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/resistanceisuseless/dnscan/internal/report"
)

// Supported formats for the findings file.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Stdout is the file name that sends findings to standard output.
const Stdout = "-"

// Record is one line of a JSON findings file.
type Record struct {
	ScanID    string    `json:"scan_id"`
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	Source    string    `json:"source"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
}

var csvHeader = []string{"Scan_ID", "Timestamp", "Target", "Source", "Name", "Type", "Value"}

// Writer streams findings to a file as they are reported. It is safe for use
// by concurrent workers.
type Writer struct {
	mu     sync.Mutex
	scanID string
	target string
	format string
	closer io.Closer
	json   *json.Encoder
	csv    *csv.Writer
	now    func() time.Time
}

// Create opens path and returns a Writer for format. An existing file is
// truncated.
func Create(path, format, scanID, target string) (*Writer, error) {
	if format != FormatJSON && format != FormatCSV {
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var out io.Writer
	var closer io.Closer
	if path == Stdout {
		out = os.Stdout
	} else {
		file, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file: %w", err)
		}
		out, closer = file, file
	}

	w, err := New(out, format, scanID, target)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}
	w.closer = closer
	return w, nil
}

// New returns a Writer that encodes findings to out. The CSV header is written
// immediately.
func New(out io.Writer, format, scanID, target string) (*Writer, error) {
	w := &Writer{
		scanID: scanID,
		target: target,
		format: format,
		now:    time.Now,
	}

	switch format {
	case FormatJSON:
		w.json = json.NewEncoder(out)
	case FormatCSV:
		w.csv = csv.NewWriter(out)
		if err := w.csv.Write(csvHeader); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		w.csv.Flush()
		if err := w.csv.Error(); err != nil {
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return w, nil
}

// WriteFinding appends f to the output and flushes it.
func (w *Writer) WriteFinding(f report.Finding) error {
	rec := Record{
		ScanID:    w.scanID,
		Timestamp: w.now().UTC(),
		Target:    w.target,
		Source:    string(f.Source),
		Name:      f.Name,
		Type:      f.Type,
		Value:     f.Value,
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.json != nil {
		if err := w.json.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	}

	row := []string{
		rec.ScanID,
		rec.Timestamp.Format(time.RFC3339),
		rec.Target,
		rec.Source,
		rec.Name,
		rec.Type,
		rec.Value,
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Close flushes pending output and closes the underlying file, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.csv != nil {
		w.csv.Flush()
	}
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
