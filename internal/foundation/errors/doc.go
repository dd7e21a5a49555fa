// Package errors provides the classified error primitives used across tkdocs.
//
// Every fatal condition of a documentation build is reported as a ClassifiedError so the
// CLI can pick an exit code and print a diagnostic without inspecting message text.
//
// Key features:
//   - ErrorCategory: what failed (dependency, tool_version, generation, postprocess, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - Hint: optional remediation shown to the user (e.g. how to install a missing tool)
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code mapping and user-facing formatting
//
// Example usage:
//
//	err := errors.DependencyError("documentation generator not found").
//		WithContext("tool", "jazzy").
//		WithHint("gem install jazzy").
//		WithCause(lookErr).
//		Build()
package errors
