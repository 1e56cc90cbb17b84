package domain

import "regexp"

// Scope reports whether a candidate subdomain lies strictly below a target
// apex: a syntactically valid domain ending in "."+target, excluding the
// apex itself. Grounded on the teacher's netutil.Scope, simplified to the
// suffix-only rule the specification calls for (no registrable-domain
// widening: a source that emits siblings or unrelated names must not leak
// into the report).
type Scope struct {
	target string
	re     *regexp.Regexp
}

// NewScope builds a Scope for the given ASCII-normalized apex.
func NewScope(target string) *Scope {
	return &Scope{
		target: target,
		re:     regexp.MustCompile(`^(` + labelPattern + `\.)+` + regexp.QuoteMeta(target) + `$`),
	}
}

// Allows reports whether candidate is in-scope: syntactically valid and a
// strict subdomain of the target apex.
func (s *Scope) Allows(candidate string) bool {
	if s == nil || candidate == "" {
		return false
	}
	if !IsValid(candidate) {
		return false
	}
	return s.re.MatchString(candidate)
}
