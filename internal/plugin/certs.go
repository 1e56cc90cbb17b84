package plugin

import (
	"sort"
	"strings"
)

// certRecord captures the handful of certificate fields the censys source
// needs to deduplicate hits before extracting names. Adapted from the
// teacher's internal/certs.Record; trimmed to what this package actually
// consumes, since the API contract here only ever surfaces a set of
// subdomain strings (spec.md §4.3) — the full record never leaves this
// file.
type certRecord struct {
	commonName        string
	dnsNames          []string
	fingerprintSHA256 string
	fingerprintSHA1   string
}

func (r *certRecord) normalize() {
	r.commonName = strings.TrimSpace(strings.ToLower(r.commonName))
	r.fingerprintSHA256 = strings.TrimSpace(strings.ToLower(r.fingerprintSHA256))
	r.fingerprintSHA1 = strings.TrimSpace(strings.ToLower(r.fingerprintSHA1))

	seen := make(map[string]struct{}, len(r.dnsNames))
	cleaned := r.dnsNames[:0]
	for _, name := range r.dnsNames {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cleaned = append(cleaned, name)
	}
	sort.Strings(cleaned)
	r.dnsNames = cleaned
}

// key builds a stable dedup identifier, preferring the strongest
// fingerprint available and falling back to the common name.
func (r certRecord) key() string {
	switch {
	case r.fingerprintSHA256 != "":
		return "sha256:" + r.fingerprintSHA256
	case r.fingerprintSHA1 != "":
		return "sha1:" + r.fingerprintSHA1
	case r.commonName != "":
		return "cn:" + r.commonName
	default:
		return ""
	}
}

func (r certRecord) names() []string {
	names := make([]string, 0, len(r.dnsNames)+1)
	if r.commonName != "" {
		names = append(names, r.commonName)
	}
	names = append(names, r.dnsNames...)
	return names
}
