// Package domain holds the syntactic rules used to accept or reject
// candidate subdomains coming out of a source, independent of scope.
package domain

import (
	"net"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/idna"
)

// label matches a single DNS label: alnum, optionally hyphenated, 1-63 chars.
const labelPattern = `[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?`

var domainRe = regexp.MustCompile(`^(` + labelPattern + `\.)+` + labelPattern + `$`)

// Normalize lowercases s, trims surrounding whitespace and strips a single
// leading "*." wildcard label. It performs no other transformation; in
// particular it does not validate the result.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "*.")
	return s
}

// IsValid reports whether s is an acceptable subdomain candidate: not an IP
// literal, within the 253-char length budget, IDNA-encodable to ASCII, and
// matching the label grammar with a last label that is either punycoded or
// digit-free.
func IsValid(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	if net.ParseIP(s) != nil {
		return false
	}

	ascii, err := idna.ToASCII(s)
	if err != nil {
		return false
	}

	if !domainRe.MatchString(ascii) {
		return false
	}

	last := lastLabel(ascii)
	if len(last) < 2 {
		return false
	}
	if strings.HasPrefix(last, "xn--") {
		return true
	}
	return !containsDigit(last)
}

func lastLabel(s string) string {
	if idx := strings.LastIndexByte(s, '.'); idx != -1 {
		return s[idx+1:]
	}
	return s
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
