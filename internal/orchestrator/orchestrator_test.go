package orchestrator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"subreckon/internal/domain"
	"subreckon/internal/plugin"
	"subreckon/internal/progress"
	"subreckon/internal/runner"
	"subreckon/internal/workerpool"
)

func mustTarget(t *testing.T, raw string) domain.Target {
	t.Helper()
	tgt, err := domain.NewTarget(raw)
	if err != nil {
		t.Fatalf("NewTarget(%q): %v", raw, err)
	}
	return tgt
}

func TestRunMergesAndAppliesScope(t *testing.T) {
	tool := plugin.Descriptor{
		Name: "tool-source",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			return []string{"sh", "-c", "printf 'a.example.com\\nb.example.com\\n*.c.example.com\\n'"}
		},
	}
	// api-source is served by a real httptest server so the Runner makes an
	// actual HTTP round trip; Parse ignores the body and returns a fixed set
	// that overlaps the tool source (b.example.com, dedup-credit) and
	// includes an out-of-scope name (evil.org, scope-filter-at-merge).
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	api := plugin.Descriptor{
		Name:        "api-source",
		Kind:        plugin.KindAPI,
		URLTemplate: srv.URL + "/{domain}",
		JSON:        true,
		Parse: func(body []byte) (map[string]struct{}, error) {
			return map[string]struct{}{
				"b.example.com": {},
				"evil.org":      {},
			}, nil
		},
	}

	r := runner.New(workerpool.New(4), progress.Noop{}, 0, "subreckon-test/1.0")
	orch := New(r)

	target := mustTarget(t, "example.com")
	report := orch.Run(context.Background(), target, []plugin.Descriptor{tool, api}, 5*time.Second)

	want := []string{"a.example.com", "b.example.com", "c.example.com"}
	if !sort.StringsAreSorted(report.Subdomains) {
		t.Fatalf("subdomains not sorted: %v", report.Subdomains)
	}
	if len(report.Subdomains) != len(want) {
		t.Fatalf("subdomains = %v, want %v", report.Subdomains, want)
	}
	for i, name := range want {
		if report.Subdomains[i] != name {
			t.Errorf("subdomains[%d] = %q, want %q", i, report.Subdomains[i], name)
		}
	}
	for _, name := range report.Subdomains {
		if name == "evil.org" {
			t.Errorf("expected evil.org to be dropped by the scope filter, got %v", report.Subdomains)
		}
	}

	// b.example.com overlaps both sources; completion-order credit (this
	// repo's Open Question decision) means exactly one of them claims it, so
	// the totals must sum to 3, not 4.
	total := report.Contributions["tool-source"] + report.Contributions["api-source"]
	if total != 3 {
		t.Errorf("total contributions = %d, want 3 (b.example.com credited to exactly one source)", total)
	}
}

func TestRunNeverCancelsPeersOnOneFailure(t *testing.T) {
	failing := plugin.Descriptor{
		Name: "failing",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			return []string{"sh", "-c", "exit 1"}
		},
	}
	succeeding := plugin.Descriptor{
		Name: "succeeding",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			return []string{"sh", "-c", "printf 'x.example.com\\n'"}
		},
	}

	r := runner.New(workerpool.New(4), progress.Noop{}, 0, "subreckon-test/1.0")
	orch := New(r)

	target := mustTarget(t, "example.com")
	report := orch.Run(context.Background(), target, []plugin.Descriptor{failing, succeeding}, 5*time.Second)

	if len(report.Subdomains) != 1 || report.Subdomains[0] != "x.example.com" {
		t.Fatalf("expected succeeding source's result to survive, got %v", report.Subdomains)
	}
	if _, ok := report.Contributions["failing"]; !ok {
		t.Errorf("expected a (zero) contribution entry for the failing source, got %v", report.Contributions)
	}
}
