package plugin

import (
	"encoding/json"
	"strings"
)

func init() {
	register(Descriptor{
		Name:        "rdap",
		Kind:        KindAPI,
		URLTemplate: "https://rdap.org/domain/{domain}",
		JSON:        true,
		Parse:       parseRDAP,
	})
}

type rdapResponse struct {
	LDHName     string `json:"ldhName"`
	Nameservers []struct {
		LDHName string `json:"ldhName"`
	} `json:"nameservers"`
}

// parseRDAP extracts nameserver hostnames as candidate names. The teacher's
// RDAP source also emitted free-text registrar/status/event summary lines;
// those don't fit the set-of-names Parse contract (spec.md §4.3) and are
// dropped here rather than smuggled through it — a richer report surface
// would need its own sink, not this one.
func parseRDAP(body []byte) (map[string]struct{}, error) {
	var decoded rdapResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for _, ns := range decoded.Nameservers {
		name := strings.ToLower(strings.TrimSpace(ns.LDHName))
		if name != "" {
			names[name] = struct{}{}
		}
	}
	return names, nil
}
