package plugin

import (
	"os/exec"
	"strings"

	"subreckon/internal/logx"
)

// registered accumulates descriptors contributed by each source file's
// init(), mirroring DESIGN NOTES §9(a): a compile-time registry rather than
// the teacher's directory scan. See source_*.go in this package.
var registered []Descriptor

// register is called from each built-in source file's init().
func register(d Descriptor) {
	registered = append(registered, d)
}

// Registry holds the set of descriptors known to the binary and applies the
// gating policy on Load.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry builds a Registry from every descriptor registered via
// init(), plus any extra descriptors supplied by the caller (used by tests
// to inject fakes without touching the global registration list).
func NewRegistry(extra ...Descriptor) *Registry {
	all := make([]Descriptor, 0, len(registered)+len(extra))
	all = append(all, registered...)
	all = append(all, extra...)
	return &Registry{descriptors: all}
}

// Descriptors returns every descriptor known to the registry, unfiltered —
// used by tooling (cmd/install-deps) that needs the full Tool roster before
// any of it has been gated by PATH availability.
func (r *Registry) Descriptors() []Descriptor {
	return r.descriptors
}

// LookPath is overridable in tests.
var lookPath = exec.LookPath

// Load applies spec.md §4.2's gating policy in order: contract check,
// include/exclude, PATH resolution for Tool descriptors. include and
// exclude are mutually exclusive; when both are non-empty, include wins and
// exclude is ignored (the caller is expected to have rejected that
// combination earlier, at the config boundary). Name comparisons are
// case-insensitive. Duplicates (same name from two descriptors) resolve
// last-write-wins, with a warning.
func (r *Registry) Load(include, exclude []string) (survivors []Descriptor, skipped []string) {
	includeSet := toLowerSet(include)
	excludeSet := toLowerSet(exclude)

	byName := make(map[string]Descriptor)
	order := make([]string, 0, len(r.descriptors))

	for _, d := range r.descriptors {
		lname := strings.ToLower(strings.TrimSpace(d.Name))

		if err := d.Validate(); err != nil {
			logx.Warnf("plugin: skipping %s: %v", d.Name, err)
			skipped = append(skipped, d.Name)
			continue
		}

		if len(includeSet) > 0 {
			if !includeSet[lname] {
				logx.Debugf("plugin: skipping %s: not in include list", d.Name)
				skipped = append(skipped, d.Name)
				continue
			}
		} else if len(excludeSet) > 0 && excludeSet[lname] {
			logx.Debugf("plugin: skipping %s: excluded", d.Name)
			skipped = append(skipped, d.Name)
			continue
		}

		if d.Kind == KindTool {
			argv := d.BuildCommand("example.invalid")
			if len(argv) == 0 {
				logx.Warnf("plugin: skipping %s: empty argv", d.Name)
				skipped = append(skipped, d.Name)
				continue
			}
			if _, err := lookPath(argv[0]); err != nil {
				logx.Warnf("plugin: skipping %s: %q not found on PATH", d.Name, argv[0])
				skipped = append(skipped, d.Name)
				continue
			}
		}

		if _, dup := byName[lname]; dup {
			logx.Warnf("plugin: duplicate source name %q, keeping last registered", d.Name)
		} else {
			order = append(order, lname)
		}
		byName[lname] = d
	}

	survivors = make([]Descriptor, 0, len(order))
	for _, name := range order {
		survivors = append(survivors, byName[name])
	}
	return survivors, skipped
}

func toLowerSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}
