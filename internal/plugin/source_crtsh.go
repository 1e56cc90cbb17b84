package plugin

import (
	"encoding/json"
	"strings"
)

func init() {
	register(Descriptor{
		Name:        "crtsh",
		Kind:        KindAPI,
		URLTemplate: "https://crt.sh/?q=%25.{domain}&output=json",
		JSON:        true,
		Parse:       parseCRTSH,
	})
}

func parseCRTSH(body []byte) (map[string]struct{}, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	names := make(map[string]struct{})
	for _, row := range rows {
		v, ok := row["name_value"].(string)
		if !ok {
			continue
		}
		for _, line := range strings.Split(v, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				names[line] = struct{}{}
			}
		}
	}
	return names, nil
}
