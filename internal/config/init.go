package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

const initHeader = `# tkdocs configuration
# Builds the TravelKit API reference with jazzy and rebrands the generated HTML.
# ${VAR} references are expanded from the environment (.env.local takes precedence over .env).

`

// Init writes the default configuration to path. An existing file is kept unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ConfigError(fmt.Sprintf("configuration file already exists: %s", path)).
			WithHint("Use --force to overwrite it.").Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal default configuration").Fatal().Build()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "create configuration directory").Fatal().Build()
		}
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(path, append([]byte(initHeader), data...), 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write configuration file").Fatal().Build()
	}
	return nil
}
