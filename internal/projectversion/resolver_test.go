package projectversion

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dotNumeric = regexp.MustCompile(`^[0-9.]+$`)

func TestResolveReader(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Version
	}{
		{
			name:  "build suffix stripped",
			input: "TK_BUNDLE_VERSION = 1.2.3-build\n",
			want:  "1.2.3",
		},
		{
			name:  "pbxproj formatting",
			input: "\t\t\t\tTK_BUNDLE_VERSION = 2.4.1;\n",
			want:  "2.4.1",
		},
		{
			name: "duplicates collapsed",
			input: "\t\tTK_BUNDLE_VERSION = 3.0;\n" +
				"\t\tOTHER = 9;\n" +
				"\t\tTK_BUNDLE_VERSION = 3.0;\n",
			want: "3.0",
		},
		{
			name: "first distinct match wins",
			input: "TK_BUNDLE_VERSION = 1.0.3;\n" +
				"TK_BUNDLE_VERSION = 1.1.0;\n",
			want: "1.0.3",
		},
		{
			name:  "quoted value",
			input: `TK_BUNDLE_VERSION = "4.5.6";`,
			want:  "4.5.6",
		},
		{
			name:  "key absent",
			input: "MARKETING_VERSION = 1.2.3;\n",
			want:  Fallback,
		},
		{
			name:  "no numeric content",
			input: "TK_BUNDLE_VERSION = $(inherited);\n",
			want:  Fallback,
		},
		{
			name:  "empty source",
			input: "",
			want:  Fallback,
		},
	}

	r := NewResolver("")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ResolveReader(strings.NewReader(tt.input))
			assert.Equal(t, tt.want, got)
			if !r.IsFallback(got) {
				assert.Regexp(t, dotNumeric, got.String())
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.pbxproj")
	require.NoError(t, os.WriteFile(path, []byte("TK_BUNDLE_VERSION = 1.2.3-build\n"), 0o600))

	assert.Equal(t, Version("1.2.3"), Resolve(path, "TK_BUNDLE_VERSION"))
}

func TestResolveMissingFileFallsBack(t *testing.T) {
	got := Resolve(filepath.Join(t.TempDir(), "missing.pbxproj"), "TK_BUNDLE_VERSION")
	assert.Equal(t, Fallback, got)
	assert.True(t, NewResolver("").IsFallback(got))
}

func TestResolverCustomFallback(t *testing.T) {
	r := &Resolver{Key: "VERSION", Fallback: "dev"}
	got := r.ResolveReader(strings.NewReader("nothing here"))
	assert.Equal(t, Version("dev"), got)
	assert.True(t, r.IsFallback(got))
	assert.False(t, r.IsFallback(Fallback))
	assert.False(t, r.IsFallback(r.ResolveReader(strings.NewReader("VERSION = 2.1"))))
}

func TestResolvedVersionIsDotNumeric(t *testing.T) {
	inputs := []string{
		"TK_BUNDLE_VERSION = v1.2.3-rc1",
		"TK_BUNDLE_VERSION = 10.0 (beta)",
		"foo TK_BUNDLE_VERSION = a1b2c3",
	}
	for _, in := range inputs {
		r := NewResolver("")
		got := r.ResolveReader(strings.NewReader(in))
		require.False(t, r.IsFallback(got), in)
		assert.Regexp(t, dotNumeric, got.String(), in)
	}
}

func TestResolveReaderShorthand(t *testing.T) {
	src := "A = 1\nTK_BUNDLE_VERSION = 2.0.1;\nTK_BUNDLE_VERSION = 2.0.1;\n"
	assert.Equal(t, Version("2.0.1"), ResolveReader(strings.NewReader(src), DefaultKey))
	assert.Equal(t, Fallback, ResolveReader(strings.NewReader(src), "MISSING_KEY"))
}
