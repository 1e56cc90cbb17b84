// Package format writes TargetReports out in one of the engine's supported
// textual formats. spec.md §1 treats output serializers as an external
// collaborator and specifies only their existence, not their shape; this
// package is the supplement that makes the Driver runnable end to end,
// built after the teacher's internal/out.Writer: txt and csv output is
// buffered and flushed on every WriteTarget so a concurrent reader never
// sees a half-written line, while json is written whole on Close. The
// writers do not deduplicate; each report's subdomains are written as given.
package format

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"subreckon/internal/orchestrator"
)

// Kind selects the on-disk shape of a report.
type Kind string

const (
	Text Kind = "txt"
	CSV  Kind = "csv"
	JSON Kind = "json"
)

// Writer accumulates per-target reports and persists them in a chosen
// format. Implementations must be safe for WriteTarget to be called once
// per target processed by the Driver, in any order.
type Writer interface {
	WriteTarget(target string, report orchestrator.Report) error
	Close() error
}

// New opens path for writing in the given format, truncating any existing
// file (spec.md §7, "output file exists without overwrite" is the Driver's
// concern — it decides whether to call New at all).
func New(kind Kind, path string) (Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	switch kind {
	case Text:
		return &textWriter{file: f, buf: bufio.NewWriterSize(f, 64*1024)}, nil
	case CSV:
		w := csv.NewWriter(f)
		if err := w.Write([]string{"target", "subdomain"}); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		return &csvWriter{file: f, csv: w}, nil
	case JSON:
		return &jsonWriter{file: f, reports: make(map[string]jsonReport)}, nil
	default:
		f.Close()
		return nil, fmt.Errorf("format: unknown kind %q", kind)
	}
}

type textWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
}

func (w *textWriter) WriteTarget(target string, report orchestrator.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range report.Subdomains {
		if _, err := w.buf.WriteString(sub); err != nil {
			return err
		}
		if err := w.buf.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.buf.Flush()
}

func (w *textWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

type csvWriter struct {
	mu   sync.Mutex
	file *os.File
	csv  *csv.Writer
}

func (w *csvWriter) WriteTarget(target string, report orchestrator.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sub := range report.Subdomains {
		if err := w.csv.Write([]string{target, sub}); err != nil {
			return err
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *csvWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

type jsonReport struct {
	Subdomains    []string       `json:"subdomains"`
	Contributions map[string]int `json:"contributions"`
}

type jsonWriter struct {
	mu      sync.Mutex
	file    *os.File
	reports map[string]jsonReport
}

func (w *jsonWriter) WriteTarget(target string, report orchestrator.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reports[target] = jsonReport{Subdomains: report.Subdomains, Contributions: report.Contributions}
	return nil
}

// Close flushes every accumulated report as a single JSON object keyed by
// target — unlike txt/csv, JSON output can't be appended line-by-line
// without becoming invalid JSON mid-run, so it is written whole on Close.
func (w *jsonWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	enc := json.NewEncoder(w.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w.reports); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
