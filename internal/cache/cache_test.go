package cache

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"subreckon/internal/orchestrator"

	"golang.org/x/sys/unix"
)

func TestWriteThenReadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	c, ok := New(dir)
	require.True(t, ok, "New returned false for non-empty dir")

	report := orchestrator.Report{
		Subdomains:    []string{"a.example.com", "b.example.com"},
		Contributions: map[string]int{"subfinder": 2},
	}
	hash := PluginHash("1.0.0", []string{"subfinder"})

	require.NoError(t, c.Write("example.com", hash, report))

	got, ok := c.Read("example.com", hash)
	require.True(t, ok, "Read: expected hit")
	require.Equal(t, []string{"a.example.com", "b.example.com"}, got.Subdomains)
	require.Equal(t, 2, got.Contributions["subfinder"])
}

func TestReadMissingIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	_, ok := c.Read("example.com", "deadbeef")
	require.False(t, ok, "expected miss for nonexistent entry")
}

func TestCorruptChecksumIsMiss(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	report := orchestrator.Report{Subdomains: []string{"a.example.com"}, Contributions: map[string]int{"x": 1}}
	hash := PluginHash("1.0.0", []string{"x"})
	require.NoError(t, c.Write("example.com", hash, report))

	dataPath, _ := c.paths("example.com", hash)
	raw, err := os.ReadFile(dataPath)
	require.NoError(t, err)
	corrupted := bytes.Replace(raw, []byte("a.example.com"), []byte("z.example.com"), 1)
	require.NoError(t, os.WriteFile(dataPath, corrupted, 0o644))

	_, ok := c.Read("example.com", hash)
	require.False(t, ok, "expected corrupted checksum to be reported as miss")
}

func TestNewEmptyDirDisablesCache(t *testing.T) {
	_, ok := New("")
	require.False(t, ok, "expected New(\"\") to report the cache as disabled")
}

func TestLockContentionSkipsWithoutBlocking(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	hash := PluginHash("1.0.0", []string{"x"})
	_, lockPath := c.paths("example.com", hash)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	held, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer held.Close()
	require.NoError(t, unix.Flock(int(held.Fd()), unix.LOCK_EX))

	_, ok := c.Read("example.com", hash)
	require.False(t, ok, "expected contended lock to be reported as a miss, not block forever")
}

func TestPluginHashChangesWithSelection(t *testing.T) {
	h1 := PluginHash("1.0.0", []string{"subfinder", "amass"})
	h2 := PluginHash("1.0.0", []string{"amass", "subfinder"})
	require.Equal(t, h1, h2, "PluginHash should be order-independent")

	h3 := PluginHash("1.0.0", []string{"subfinder"})
	require.NotEqual(t, h1, h3, "PluginHash should change with plugin selection")

	h4 := PluginHash("1.0.1", []string{"subfinder", "amass"})
	require.NotEqual(t, h1, h4, "PluginHash should change with engine version")

	require.Len(t, h1, 8)
}

func TestClearRemovesAllEntries(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	hash := PluginHash("1.0.0", []string{"x"})
	require.NoError(t, c.Write("example.com", hash, orchestrator.Report{Subdomains: []string{"a.example.com"}}))

	require.NoError(t, c.Clear())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPruneRemovesOnlyStaleEntries(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)
	hash := PluginHash("1.0.0", []string{"x"})
	require.NoError(t, c.Write("stale.com", hash, orchestrator.Report{Subdomains: []string{"a.stale.com"}}))
	require.NoError(t, c.Write("fresh.com", hash, orchestrator.Report{Subdomains: []string{"a.fresh.com"}}))

	dataPath, _ := c.paths("stale.com", hash)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(dataPath, old, old))

	require.NoError(t, c.Prune(24*time.Hour))

	_, ok := c.Read("stale.com", hash)
	require.False(t, ok, "expected stale entry to be pruned")
	_, ok = c.Read("fresh.com", hash)
	require.True(t, ok, "expected fresh entry to survive prune")
}
