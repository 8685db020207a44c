package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseKeyFloats parses KEY=VALUE pairs such as "SPY=0.6". Keys keep their
// case unless upper is set. Duplicate keys are rejected.
func ParseKeyFloats(pairs []string, upper bool) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("expected KEY=VALUE, got %q", p)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		if upper {
			k = strings.ToUpper(k)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("duplicate key %s", k)
		}
		out[k] = f
	}
	return out, nil
}
