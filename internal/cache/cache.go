// Package cache is the content-addressed on-disk store for TargetReports.
// The atomic write (tmp file + rename) is grounded in the teacher's
// executionCache.persistLocked (internal/core/app/cache.go); cross-process
// exclusivity is new — the teacher's cache only ever guarded itself with an
// in-process sync.Mutex, which doesn't protect two separate invocations of
// the binary sharing one cache directory (spec.md §4.5). golang.org/x/sys
// rides along as an indirect dependency across this corpus already; it is
// promoted here to a direct one for unix.Flock.
package cache

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"subreckon/internal/logx"
	"subreckon/internal/orchestrator"

	"golang.org/x/sys/unix"
)

// lockTimeout bounds how long the cache waits on contention before giving up
// and proceeding with a live scan (spec.md §4.5, "≈1s").
const lockTimeout = time.Second

// Data is the JSON-serializable payload wrapped by an entry on disk,
// matching spec.md §6's cache file layout exactly.
type Data struct {
	Subdomains    []string       `json:"subdomains"`
	Contributions map[string]int `json:"contributions"`
}

type entry struct {
	Data     Data   `json:"data"`
	Checksum string `json:"checksum"`
}

// Cache is a directory of content-addressed TargetReport payloads, one file
// pair (.json + .lock) per (target, plugin-set, engine-version) key.
type Cache struct {
	dir     string
	metrics MetricsRecorder
}

// MetricsRecorder is the narrow slice of *metrics.Metrics this package needs.
type MetricsRecorder interface {
	ObserveCache(outcome string)
}

// New returns a Cache rooted at dir, or (nil, false) if dir is empty — the
// layer is optional per spec.md §4.5 and the Driver must treat a nil Cache
// as "always miss, never write".
func New(dir string) (*Cache, bool) {
	if strings.TrimSpace(dir) == "" {
		return nil, false
	}
	return &Cache{dir: dir}, true
}

// WithMetrics attaches a metrics recorder, returning c for chaining.
func (c *Cache) WithMetrics(m MetricsRecorder) *Cache {
	c.metrics = m
	return c
}

func (c *Cache) observe(outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveCache(outcome)
	}
}

// PluginHash implements the glossary's plugin-hash: the 8-hex-digit MD5
// prefix of the engine version concatenated with the sorted, joined set of
// selected plugin names.
func PluginHash(engineVersion string, pluginNames []string) string {
	sorted := append([]string(nil), pluginNames...)
	sort.Strings(sorted)
	sum := md5.Sum([]byte(engineVersion + strings.Join(sorted, ",")))
	return hex.EncodeToString(sum[:])[:8]
}

func (c *Cache) paths(asciiTarget, pluginHash string) (dataPath, lockPath string) {
	base := fmt.Sprintf("%s-%s", asciiTarget, pluginHash)
	return filepath.Join(c.dir, base+".json"), filepath.Join(c.dir, base+".lock")
}

// Read attempts to load a valid, checksum-verified entry for the given key.
// On lock contention, corruption, or a missing file it returns (zero,
// false) — never an error the Driver needs to handle specially, per
// spec.md §7 ("Cache corruption / checksum mismatch: Yes (recovered);
// treat as miss").
func (c *Cache) Read(asciiTarget, pluginHash string) (orchestrator.Report, bool) {
	dataPath, lockPath := c.paths(asciiTarget, pluginHash)

	unlock, ok := c.acquireLock(lockPath)
	if !ok {
		logx.Warnf("cache: lock contention reading %s, skipping cache", dataPath)
		c.observe("skipped")
		return orchestrator.Report{}, false
	}
	defer unlock()

	raw, err := os.ReadFile(dataPath)
	if err != nil {
		c.observe("miss")
		return orchestrator.Report{}, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		logx.Warnf("cache: corrupt entry %s: %v", dataPath, err)
		c.observe("miss")
		return orchestrator.Report{}, false
	}

	canonical, err := canonicalize(e.Data)
	if err != nil {
		logx.Warnf("cache: canonicalize %s: %v", dataPath, err)
		c.observe("miss")
		return orchestrator.Report{}, false
	}
	if checksum(canonical) != e.Checksum {
		logx.Warnf("cache: checksum mismatch %s, treating as miss", dataPath)
		c.observe("miss")
		return orchestrator.Report{}, false
	}

	c.observe("hit")
	return orchestrator.Report{Subdomains: e.Data.Subdomains, Contributions: e.Data.Contributions}, true
}

// Write persists report under the given key. Lock contention is a warning,
// not a failure — the scan result is still returned to the caller even if
// it couldn't be cached (spec.md §4.5).
func (c *Cache) Write(asciiTarget, pluginHash string, report orchestrator.Report) error {
	dataPath, lockPath := c.paths(asciiTarget, pluginHash)

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	unlock, ok := c.acquireLock(lockPath)
	if !ok {
		logx.Warnf("cache: lock contention writing %s, skipping write", dataPath)
		return nil
	}
	defer unlock()

	data := Data{Subdomains: report.Subdomains, Contributions: report.Contributions}
	canonical, err := canonicalize(data)
	if err != nil {
		return err
	}
	e := entry{Data: data, Checksum: checksum(canonical)}

	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tmp := dataPath + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dataPath)
}

// Clear removes every cache entry, for the "cache clear" CLI subcommand.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".lock") {
			if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

// Prune removes cache entries whose data file is older than maxAge,
// grounded in the teacher's executionCache.Prune (internal/core/app/cache.go)
// — adapted from an in-memory per-step CompletedAt comparison to a file
// mtime comparison, since this cache's unit of staleness is a whole
// on-disk entry rather than a step inside one shared file.
func (c *Cache) Prune(maxAge time.Duration) error {
	if maxAge <= 0 {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			base := strings.TrimSuffix(name, ".json")
			_ = os.Remove(filepath.Join(c.dir, name))
			_ = os.Remove(filepath.Join(c.dir, base+".lock"))
		}
	}
	return nil
}

// acquireLock takes an advisory, cross-process exclusive flock on lockPath
// with a short timeout, polling since unix.Flock has no timeout parameter
// of its own. The returned func releases the lock and closes the fd.
func (c *Cache) acquireLock(lockPath string) (unlock func(), ok bool) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		logx.Warnf("cache: open lock %s: %v", lockPath, err)
		return nil, false
	}

	deadline := time.Now().Add(lockTimeout)
	const pollInterval = 20 * time.Millisecond
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return func() {
				_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
				_ = f.Close()
			}, true
		}
		if !errors.Is(err, unix.EWOULDBLOCK) {
			logx.Warnf("cache: flock %s: %v", lockPath, err)
			_ = f.Close()
			return nil, false
		}
		if time.Now().After(deadline) {
			_ = f.Close()
			return nil, false
		}
		time.Sleep(pollInterval)
	}
}

// canonicalize produces the deterministic byte sequence the checksum is
// computed over: UTF-8 JSON with object keys sorted and the subdomain list
// sorted. The payload is marshalled as a map because encoding/json sorts map
// keys but emits struct fields in declaration order, and Data declares
// "subdomains" before "contributions".
func canonicalize(d Data) ([]byte, error) {
	sorted := append([]string(nil), d.Subdomains...)
	sort.Strings(sorted)
	return json.Marshal(map[string]any{
		"contributions": d.Contributions,
		"subdomains":    sorted,
	})
}

func checksum(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
