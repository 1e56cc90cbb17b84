// Package orchestrator fans a target out across a selected descriptor set,
// merges their results in completion order, and applies the final in-scope
// filter. The fan-out itself is grounded in the teacher's runnerWaitGroup
// (internal/app/app.go): a slice of per-task result channels awaited after
// every Go call returns, rather than golang.org/x/sync/errgroup, whose
// default WithContext cancels every peer on the first error — exactly the
// behavior spec.md §4.4 forbids ("never cancels peers on a single
// failure").
package orchestrator

import (
	"context"
	"sort"
	"time"

	"subreckon/internal/domain"
	"subreckon/internal/plugin"
	"subreckon/internal/runner"
)

// Report is the aggregated, in-scope outcome of one target's scan.
type Report struct {
	Subdomains    []string
	Contributions map[string]int
}

// Orchestrator runs a fixed Runner against every descriptor in a selected
// set, for one target at a time.
type Orchestrator struct {
	runner *runner.Runner
}

// New builds an Orchestrator around an already-configured Runner.
func New(r *runner.Runner) *Orchestrator {
	return &Orchestrator{runner: r}
}

// resultWaitGroup collects Runner outcomes without letting one Runner's
// failure cancel the others — the direct analogue of the teacher's
// runnerWaitGroup, generalized to carry a value instead of just an error.
type resultWaitGroup struct {
	chans []chan runner.Result
}

func (w *resultWaitGroup) Go(fn func() runner.Result) {
	ch := make(chan runner.Result, 1)
	w.chans = append(w.chans, ch)
	go func() {
		ch <- fn()
	}()
}

// Wait returns results in completion order, which is the only ordering
// contract spec.md §5 makes: submission order is fixed, completion order is
// not, and contribution credit follows completion order.
func (w *resultWaitGroup) Wait() []runner.Result {
	results := make([]runner.Result, 0, len(w.chans))
	pending := make([]chan runner.Result, len(w.chans))
	copy(pending, w.chans)

	// select over a dynamic channel set via reflect would be idiomatic for
	// N arbitrary channels, but Go's select can't range a slice; fan the
	// channels into one completion-ordered stream instead.
	merged := make(chan runner.Result, len(pending))
	for _, ch := range pending {
		go func(c chan runner.Result) { merged <- <-c }(ch)
	}
	for range pending {
		results = append(results, <-merged)
	}
	return results
}

// Run executes every descriptor in descriptors against target, merges
// results in completion order (crediting only newly-added names to their
// source), applies the scope filter, and returns the sorted, deduplicated
// report. taskTimeout is the per-task scope from spec.md §5; an optional
// global timeout is the caller's responsibility via ctx.
func (o *Orchestrator) Run(ctx context.Context, target domain.Target, descriptors []plugin.Descriptor, taskTimeout time.Duration) Report {
	var wg resultWaitGroup
	for _, d := range descriptors {
		d := d
		wg.Go(func() runner.Result {
			return o.runner.Run(ctx, d, target, taskTimeout)
		})
	}

	results := wg.Wait()

	scope := domain.NewScope(target.ASCII)
	union := make(map[string]struct{})
	contributions := make(map[string]int)

	for _, res := range results {
		added := 0
		for name := range res.Subdomains {
			if !scope.Allows(name) {
				continue
			}
			if _, dup := union[name]; dup {
				continue
			}
			union[name] = struct{}{}
			added++
		}
		contributions[res.Source] = added
	}

	sorted := make([]string, 0, len(union))
	for name := range union {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	return Report{Subdomains: sorted, Contributions: contributions}
}
