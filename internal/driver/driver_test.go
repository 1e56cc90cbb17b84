package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subreckon/internal/cache"
	"subreckon/internal/orchestrator"
	"subreckon/internal/plugin"
	"subreckon/internal/progress"
	"subreckon/internal/runner"
	"subreckon/internal/workerpool"
)

func newDriver(t *testing.T, extra ...plugin.Descriptor) (*Driver, *cache.Cache) {
	t.Helper()
	pool := workerpool.New(4)
	r := runner.New(pool, progress.Noop{}, 0, "subreckon-test/1.0")
	orch := orchestrator.New(r)

	c, _ := cache.New(t.TempDir())

	registry := plugin.NewRegistry(extra...)
	d, err := New(registry, orch, c, Options{
		TaskTimeout:   2 * time.Second,
		EngineVersion: "test",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, c
}

func TestResolveTargetsMergesFlagsAndFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	if err := os.WriteFile(path, []byte("# comment\nexample.org\n\nexample.com\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ResolveTargets([]string{"example.com", " example.net "}, path)
	if err != nil {
		t.Fatalf("ResolveTargets: %v", err)
	}
	want := []string{"example.com", "example.net", "example.org"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResolveTargetsEmptyIsFatal(t *testing.T) {
	if _, err := ResolveTargets(nil, ""); err == nil {
		t.Fatalf("expected error for empty target set")
	}
}

func TestNewWithNoUsableDescriptorsIsFatal(t *testing.T) {
	registry := plugin.NewRegistry()
	pool := workerpool.New(1)
	r := runner.New(pool, progress.Noop{}, 0, "subreckon-test/1.0")
	orch := orchestrator.New(r)
	c, _ := cache.New(t.TempDir())

	if _, err := New(registry, orch, c, Options{Include: []string{"no-such-source"}}); err == nil {
		t.Fatalf("expected NoPluginsError when the include list matches no registered source")
	}
}

func TestRunProcessesEachTargetIndependently(t *testing.T) {
	descriptor := plugin.Descriptor{
		Name: "echo-source",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			return []string{"sh", "-c", "printf 'sub1.%s\\nsub2.%s\\n' \"$0\" \"$0\"", target}
		},
	}
	d, _ := newDriver(t, descriptor)

	processed := d.Run(context.Background(), []string{"example.com", "example.org"}, nil)
	if processed != 2 {
		t.Fatalf("expected 2 targets processed, got %d", processed)
	}
}

func TestRunInvalidTargetDoesNotAbortBatch(t *testing.T) {
	descriptor := plugin.Descriptor{
		Name: "echo-source",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			return []string{"sh", "-c", "printf 'sub1.%s\\n' \"$0\"", target}
		},
	}
	d, _ := newDriver(t, descriptor)

	processed := d.Run(context.Background(), []string{"not a domain", "example.com"}, nil)
	if processed != 1 {
		t.Fatalf("expected 1 target processed despite one invalid entry, got %d", processed)
	}
}

func TestRunWritesThroughCacheOnSecondPass(t *testing.T) {
	calls := 0
	descriptor := plugin.Descriptor{
		Name: "counting-source",
		Kind: plugin.KindTool,
		BuildCommand: func(target string) []string {
			calls++
			return []string{"sh", "-c", "printf 'sub.%s\\n' \"$0\"", target}
		},
	}
	d, _ := newDriver(t, descriptor)

	ctx := context.Background()
	if n := d.Run(ctx, []string{"example.com"}, nil); n != 1 {
		t.Fatalf("expected 1 target processed, got %d", n)
	}
	firstCalls := calls
	if n := d.Run(ctx, []string{"example.com"}, nil); n != 1 {
		t.Fatalf("expected 1 target processed on second pass, got %d", n)
	}
	if calls != firstCalls {
		t.Fatalf("expected cache hit to avoid re-invoking BuildCommand, first=%d second=%d", firstCalls, calls)
	}
}
