package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subreckon/internal/orchestrator"
)

func TestTextWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	w, err := New(Text, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := orchestrator.Report{Subdomains: []string{"a.example.com", "b.example.com"}}
	if err := w.WriteTarget("example.com", report); err != nil {
		t.Fatalf("WriteTarget: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "a.example.com" || lines[1] != "b.example.com" {
		t.Fatalf("unexpected content: %q", string(data))
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := New(CSV, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := orchestrator.Report{Subdomains: []string{"a.example.com"}}
	if err := w.WriteTarget("example.com", report); err != nil {
		t.Fatalf("WriteTarget: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "target,subdomain\nexample.com,a.example.com\n"
	if string(data) != want {
		t.Fatalf("content = %q, want %q", string(data), want)
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := New(JSON, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report := orchestrator.Report{
		Subdomains:    []string{"a.example.com"},
		Contributions: map[string]int{"subfinder": 1},
	}
	if err := w.WriteTarget("example.com", report); err != nil {
		t.Fatalf("WriteTarget: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var decoded map[string]jsonReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, ok := decoded["example.com"]
	if !ok {
		t.Fatalf("missing example.com in %v", decoded)
	}
	if len(got.Subdomains) != 1 || got.Subdomains[0] != "a.example.com" {
		t.Errorf("subdomains = %v", got.Subdomains)
	}
	if got.Contributions["subfinder"] != 1 {
		t.Errorf("contributions = %v", got.Contributions)
	}
}
