// Package plugin discovers and validates discovery sources. It replaces the
// teacher's duck-typed source functions (internal/sources/*.go, each a bare
// function matched by name in internal/app/orchestrator.go) with a sum type
// over {Tool, API} per the design notes (spec.md §9): contract violations on
// the static fields become compile-time impossibilities, and only a
// plugin's Parse output shape is still checked at runtime.
package plugin

import "strings"

// Kind distinguishes a subprocess-based source from an HTTP-based one.
type Kind int

const (
	KindTool Kind = iota
	KindAPI
)

// AuthHint tells the Runner how to authenticate an API request: either by
// reading an environment variable into a Bearer token, or by sending a
// literal header value verbatim. Exactly one of the two is expected to be
// set; EnvVar takes precedence when both are.
type AuthHint struct {
	EnvVar      string
	HeaderValue string
}

// ParseFunc turns one API response body into a set of candidate subdomain
// strings. Any other return shape is a contract violation (spec.md §4.3);
// in Go this is enforced by the signature itself, so the only remaining
// runtime check is that body was well-formed enough to reach here.
type ParseFunc func(body []byte) (map[string]struct{}, error)

// BuildCommandFunc returns the argv for a Tool invocation against target.
// The first element must be an executable base name; arguments must place
// the target somewhere in the list. The returned slice is passed directly
// to exec.Command — it is never interpreted by a shell.
type BuildCommandFunc func(target string) []string

// Descriptor describes one discovery source. Exactly the Tool fields or
// exactly the API fields are meaningful, selected by Kind.
type Descriptor struct {
	Name string
	Kind Kind

	// Tool
	BuildCommand BuildCommandFunc

	// API
	URLTemplate string
	Parse       ParseFunc
	JSON        bool
	Auth        *AuthHint
}

// Validate checks the source contract from spec.md §4.2/§6. It does not
// check PATH availability (the loader's job) or credentials (the runner's).
func (d Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errContract("descriptor has empty name")
	}
	switch d.Kind {
	case KindTool:
		if d.BuildCommand == nil {
			return errContract(d.Name + ": tool descriptor missing BuildCommand")
		}
	case KindAPI:
		if !strings.Contains(d.URLTemplate, "{domain}") {
			return errContract(d.Name + ": api descriptor URLTemplate missing {domain}")
		}
		if d.Parse == nil {
			return errContract(d.Name + ": api descriptor missing Parse")
		}
	default:
		return errContract(d.Name + ": unknown descriptor kind")
	}
	return nil
}

type contractError string

func (e contractError) Error() string { return "plugin: contract violation: " + string(e) }

func errContract(msg string) error { return contractError(msg) }
