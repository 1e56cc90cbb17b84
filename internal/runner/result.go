package runner

import "subreckon/internal/progress"

// Result is one Source Runner's outcome for one (descriptor, target) pair.
// Contribution credit is not decided here — the Orchestrator assigns it in
// completion order (spec.md §4.4) — so Result only carries the raw set this
// attempt produced.
type Result struct {
	Source     string
	Subdomains map[string]struct{}
	Status     progress.Status
}
