package featureflags

import (
	"os"
	"strings"
)

// Known flags.
const (
	// NotFound404 answers missing users and hobbies with 404 instead of 400.
	NotFound404 = "NOTFOUND_404"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	return parse(os.Getenv("FLAG_" + strings.ToUpper(name)))
}

func parse(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
