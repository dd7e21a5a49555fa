package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

// envFiles are loaded from the configuration directory in order. godotenv.Load never
// overrides a variable that is already set, so .env.local wins over .env and the
// process environment wins over both.
var envFiles = []string{".env.local", ".env"}

// envRef matches $$, ${NAME} and $NAME. $$ is matched so that the text after an
// escaped dollar is never read as a reference.
var envRef = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnv replaces ${NAME} and $NAME with the value of a set environment variable.
// Everything else, including regexp references like $1, ${1} and $$, is kept verbatim.
func expandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		name := m[1] + m[2]
		if name == "" {
			return ref
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})
}

func loadEnvFiles(dir string) {
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
}
