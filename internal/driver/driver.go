// Package driver is the engine's outermost loop: it resolves targets,
// consults the Cache Layer, invokes the Orchestrator on a miss, and writes
// results through the external output writer, never letting one target's
// failure abort the batch. Grounded in the teacher's app.Run
// (internal/app/app.go) for the overall shape — a single pass over an input
// list with per-item recovery — generalized from one fixed target to many
// and from direct source dispatch to the Orchestrator/Cache pipeline.
package driver

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"subreckon/internal/cache"
	"subreckon/internal/domain"
	"subreckon/internal/format"
	"subreckon/internal/logx"
	"subreckon/internal/orchestrator"
	"subreckon/internal/plugin"
	"subreckon/internal/xerrors"
)

// MetricsRecorder is the narrow slice of *metrics.Metrics this package needs.
type MetricsRecorder interface {
	ObserveTarget(outcome string)
}

// Options configures one Driver. EngineVersion feeds the cache's
// plugin-hash and the Runner's User-Agent (set by the caller before
// building the Orchestrator); it is repeated here only for PluginHash.
type Options struct {
	Include       []string
	Exclude       []string
	TaskTimeout   time.Duration
	GlobalTimeout time.Duration // 0 disables the per-target overall timeout
	EngineVersion string
}

// Driver ties a Registry, Orchestrator, and optional Cache together into
// one runnable batch.
type Driver struct {
	orch        *orchestrator.Orchestrator
	cache       *cache.Cache // nil disables caching
	descriptors []plugin.Descriptor
	pluginHash  string
	opts        Options
	metrics     MetricsRecorder
}

// New resolves the descriptor set from registry and builds a Driver. It
// returns xerrors.NewNoPluginsError when include/exclude filtering and PATH
// resolution leave zero usable descriptors (spec.md §6).
func New(registry *plugin.Registry, orch *orchestrator.Orchestrator, c *cache.Cache, opts Options) (*Driver, error) {
	descriptors, skipped := registry.Load(opts.Include, opts.Exclude)
	for _, name := range skipped {
		logx.Debugf("driver: source %s not available this run", name)
	}
	if len(descriptors) == 0 {
		return nil, xerrors.NewNoPluginsError()
	}

	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Name)
	}

	return &Driver{
		orch:        orch,
		cache:       c,
		descriptors: descriptors,
		pluginHash:  cache.PluginHash(opts.EngineVersion, names),
		opts:        opts,
	}, nil
}

// WithMetrics attaches a metrics recorder, returning d for chaining.
func (d *Driver) WithMetrics(m MetricsRecorder) *Driver {
	d.metrics = m
	return d
}

func (d *Driver) observe(outcome string) {
	if d.metrics != nil {
		d.metrics.ObserveTarget(outcome)
	}
}

// ResolveTargets merges raw (from --target, already split) with the
// contents of inputFile (one domain per line, blank lines and "#" comments
// ignored). It returns xerrors.NewNoTargetsError if the combined, deduped
// list is empty (spec.md §6).
func ResolveTargets(raw []string, inputFile string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, t := range raw {
		add(t)
	}
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, xerrors.Suggest(fmt.Errorf("driver: reading input file %q: %w", inputFile, err), "check the --input path")
		}
		defer f.Close()
		s := bufio.NewScanner(f)
		for s.Scan() {
			line := strings.TrimSpace(s.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			add(line)
		}
		if err := s.Err(); err != nil {
			return nil, xerrors.Suggest(fmt.Errorf("driver: scanning input file %q: %w", inputFile, err), "check the --input path")
		}
	}
	if len(out) == 0 {
		return nil, xerrors.NewNoTargetsError()
	}
	return out, nil
}

// Run processes every raw target, writing each successfully-resolved
// TargetReport through writer. A writer of nil is valid — results are still
// cached and counted, just not persisted to an output file (the
// "output file exists without overwrite" path from spec.md §7). It returns
// the count of targets successfully processed; individual target failures
// are logged and counted but never abort the batch or surface as an error.
func (d *Driver) Run(ctx context.Context, rawTargets []string, writer format.Writer) int {
	processed := 0
	for _, raw := range rawTargets {
		if d.runOne(ctx, raw, writer) {
			processed++
		}
	}
	return processed
}

func (d *Driver) runOne(ctx context.Context, raw string, writer format.Writer) bool {
	target, err := domain.NewTarget(raw)
	if err != nil {
		logx.Warnf("driver: skipping target %q: %v", raw, err)
		d.observe("failed")
		return false
	}

	if d.cache != nil {
		if report, hit := d.cache.Read(target.ASCII, d.pluginHash); hit {
			logx.Infof("driver: %s: cache hit (%d subdomains)", target.Original, len(report.Subdomains))
			d.writeReport(writer, target.Original, report)
			d.observe("success")
			return true
		}
	}

	targetCtx := ctx
	var cancel context.CancelFunc
	if d.opts.GlobalTimeout > 0 {
		targetCtx, cancel = context.WithTimeout(ctx, d.opts.GlobalTimeout)
		defer cancel()
	}

	report := d.orch.Run(targetCtx, target, d.descriptors, d.opts.TaskTimeout)

	if targetCtx.Err() != nil {
		logx.Warnf("driver: %s: global timeout, proceeding to next target", target.Original)
		d.observe("timeout")
		return false
	}

	if d.cache != nil {
		if err := d.cache.Write(target.ASCII, d.pluginHash, report); err != nil {
			logx.Warnf("driver: %s: cache write failed: %v", target.Original, err)
		}
	}
	d.writeReport(writer, target.Original, report)
	logx.Infof("driver: %s: done (%d subdomains, %d sources)", target.Original, len(report.Subdomains), len(report.Contributions))
	d.observe("success")
	return true
}

func (d *Driver) writeReport(writer format.Writer, target string, report orchestrator.Report) {
	if writer == nil {
		return
	}
	if err := writer.WriteTarget(target, report); err != nil {
		logx.Errorf("driver: %s: writing output: %v", target, err)
	}
}

// OpenWriter opens path in the given format unless it already exists and
// overwrite is false, in which case it logs a warning and returns a nil
// Writer — the Driver treats that as "compute, but don't persist"
// (spec.md §7, "Output file exists without overwrite: Warning; write
// skipped").
func OpenWriter(kind format.Kind, path string, allowOverwrite bool) (format.Writer, error) {
	if !allowOverwrite {
		if _, err := os.Stat(path); err == nil {
			logx.Warnf("driver: output %s already exists, skipping write (remove it or choose another --output)", path)
			return nil, nil
		}
	}
	return format.New(kind, path)
}
