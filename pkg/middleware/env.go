package middleware

import (
	"os"
	"strconv"
	"strings"
)

// Each helper leaves target untouched when name is empty, the variable is
// unset, or its value does not parse.

func envBool(name string, target *bool) {
	if v := lookup(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*target = b
		}
	}
}

func envInt(name string, target *int) {
	if v := lookup(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

func envFloat(name string, target *float64) {
	if v := lookup(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envList reads a comma-separated list, dropping blank entries.
func envList(name string, target *[]string) {
	v := lookup(name)
	if v == "" {
		return
	}

	var out []string
	for item := range strings.SplitSeq(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*target = out
}

func lookup(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
