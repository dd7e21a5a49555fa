package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
)

var validACLs = map[string]bool{"open": true, "public": true, "internal": true, "fileprivate": true, "private": true}

// Validate checks the configuration for values that would make a build meaningless.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateProject(); err != nil {
		return err
	}
	if err := cv.validateGenerator(); err != nil {
		return err
	}
	if err := cv.validatePostProcess(); err != nil {
		return err
	}
	return cv.validateOutput()
}

func (cv *configurationValidator) validateProject() error {
	p := cv.config.Project
	if strings.TrimSpace(p.VersionSource) == "" {
		return errors.ConfigError("project.version_source is required").Build()
	}
	return nil
}

func (cv *configurationValidator) validateGenerator() error {
	g := cv.config.Generator
	if err := cv.config.ToolDependency().Validate(); err != nil {
		return err
	}
	if g.Module == "" {
		return errors.ConfigError("generator.module is required").Build()
	}
	if !validACLs[g.MinACL] {
		return errors.ConfigError(fmt.Sprintf("generator.min_acl %q is not a Swift access level", g.MinACL)).Build()
	}
	if g.Documentation != "" && !doublestar.ValidatePattern(g.Documentation) {
		return errors.ConfigError(fmt.Sprintf("generator.documentation is not a valid glob: %q", g.Documentation)).Build()
	}
	return nil
}

func (cv *configurationValidator) validatePostProcess() error {
	pp := cv.config.PostProcess
	if !doublestar.ValidatePattern(pp.Selector) {
		return errors.ConfigError(fmt.Sprintf("postprocess.selector is not a valid glob: %q", pp.Selector)).Build()
	}
	if pp.TitleToken == "" || pp.VersionToken == "" {
		return errors.ConfigError("postprocess.title_token and postprocess.version_token are required").Build()
	}
	for i, r := range pp.Rules {
		if r.Pattern == "" {
			return errors.ConfigError(fmt.Sprintf("postprocess.rules[%d] has no pattern", i)).Build()
		}
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, fmt.Sprintf("postprocess.rules[%d] pattern does not compile", i)).
				Fatal().WithContext("rule", r.Name).Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	dir := strings.TrimSpace(cv.config.Output.Directory)
	if dir == "" {
		return errors.ConfigError("output.directory is required").Build()
	}
	if dir == "." || dir == "/" {
		return errors.ConfigError(fmt.Sprintf("output.directory %q would let the generator clean the project", dir)).Build()
	}
	return nil
}
