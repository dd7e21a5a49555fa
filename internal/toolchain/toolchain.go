// Package toolchain verifies that external tools required by the build are installed
// at a supported version.
package toolchain

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/logfields"
	"github.com/sygic-travel/tkdocs/internal/process"
)

// Dependency is an external tool that must be installed within a closed version interval.
type Dependency struct {
	Name       string
	MinVersion string
	MaxVersion string
	// VersionArgs are passed to the tool to print its version. Defaults to --version.
	VersionArgs []string
	// InstallHint is shown to the user when the tool is missing or unsupported.
	InstallHint string
}

// Validate checks that the interval bounds are valid semantic versions and ordered.
func (d Dependency) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.ConfigError("tool dependency has no name").Build()
	}
	minV, err := normalize(d.MinVersion)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid minimum tool version").
			Fatal().WithContext("tool", d.Name).Build()
	}
	maxV, err := normalize(d.MaxVersion)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid maximum tool version").
			Fatal().WithContext("tool", d.Name).Build()
	}
	if semver.Compare(minV, maxV) > 0 {
		return errors.ConfigError(fmt.Sprintf("tool version interval is empty: %s > %s", d.MinVersion, d.MaxVersion)).
			WithContext("tool", d.Name).Build()
	}
	return nil
}

// Allows reports whether version lies within [MinVersion, MaxVersion].
func (d Dependency) Allows(version string) bool {
	v, err := normalize(version)
	if err != nil {
		return false
	}
	minV, errMin := normalize(d.MinVersion)
	maxV, errMax := normalize(d.MaxVersion)
	if errMin != nil || errMax != nil {
		return false
	}
	return semver.Compare(v, minV) >= 0 && semver.Compare(v, maxV) <= 0
}

func (d Dependency) versionArgs() []string {
	if len(d.VersionArgs) == 0 {
		return []string{"--version"}
	}
	return d.VersionArgs
}

// Check locates the tool, probes its version and enforces the interval. It returns the
// detected version on success.
func Check(ctx context.Context, runner process.Runner, dep Dependency) (string, error) {
	if _, err := runner.LookPath(dep.Name); err != nil {
		return "", errors.DependencyError(fmt.Sprintf("required tool %q is not installed", dep.Name)).
			WithCause(err).
			WithHint(installMessage(dep)).
			WithContext("tool", dep.Name).
			Build()
	}

	res, err := runner.Run(ctx, process.Command{Name: dep.Name, Args: dep.versionArgs()})
	if err != nil {
		return "", errors.DependencyError(fmt.Sprintf("could not run %q", dep.Name)).
			WithCause(err).WithHint(installMessage(dep)).WithContext("tool", dep.Name).Build()
	}
	if !res.Success() {
		return "", errors.ToolVersionError(fmt.Sprintf("%s version probe exited with status %d", dep.Name, res.ExitCode)).
			WithContext("tool", dep.Name).WithContext("output", res.Output()).Build()
	}

	detected := ParseVersion(res.Stdout + "\n" + res.Stderr)
	if detected == "" {
		return "", errors.ToolVersionError(fmt.Sprintf("could not determine %s version", dep.Name)).
			WithContext("tool", dep.Name).WithContext("output", res.Output()).Build()
	}
	if !dep.Allows(detected) {
		return detected, errors.ToolVersionError(
			fmt.Sprintf("%s %s is not supported; required version range is [%s, %s]", dep.Name, detected, dep.MinVersion, dep.MaxVersion)).
			WithHint(installMessage(dep)).
			WithContext("tool", dep.Name).
			WithContext("detected", detected).
			Build()
	}

	slog.Debug("Tool version accepted", logfields.Tool(dep.Name), logfields.ToolVersion(detected))
	return detected, nil
}

var (
	semverPattern  = regexp.MustCompile(`v?(\d+\.\d+\.\d+)`)
	shortPattern   = regexp.MustCompile(`v?(\d+\.\d+)\b`)
	leadingVPrefix = "v"
)

// ParseVersion extracts the first version number from tool output, e.g.
// "jazzy version: 0.14.4" -> "0.14.4". Returns "" when no version is present.
func ParseVersion(output string) string {
	if m := semverPattern.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	if m := shortPattern.FindStringSubmatch(output); len(m) >= 2 {
		return m[1]
	}
	return ""
}

// normalize adds the "v" prefix required by the semver package and validates the result.
func normalize(v string) (string, error) {
	norm := strings.TrimSpace(v)
	if !strings.HasPrefix(norm, leadingVPrefix) {
		norm = leadingVPrefix + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("invalid semantic version %q", v)
	}
	return norm, nil
}

func installMessage(dep Dependency) string {
	var b strings.Builder
	fmt.Fprintf(&b, "tkdocs needs %s", dep.Name)
	if dep.MinVersion != "" || dep.MaxVersion != "" {
		fmt.Fprintf(&b, " between %s and %s (inclusive)", dep.MinVersion, dep.MaxVersion)
	}
	b.WriteString(".")
	if dep.InstallHint != "" {
		fmt.Fprintf(&b, "\nInstall it with: %s", dep.InstallHint)
	}
	return b.String()
}
