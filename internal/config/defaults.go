package config

import (
	"time"

	"github.com/sygic-travel/tkdocs/internal/toolchain"
)

// Default returns the TravelKit documentation setup.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Root:            ".",
			VersionSource:   "TravelKit.xcodeproj/project.pbxproj",
			VersionKey:      "TK_BUNDLE_VERSION",
			FallbackVersion: "staging",
		},
		Generator: GeneratorConfig{
			Tool:             "jazzy",
			MinVersion:       "0.13.0",
			MaxVersion:       "0.15.3",
			InstallHint:      "gem install jazzy",
			ObjC:             true,
			Clean:            true,
			FrameworkRoot:    ".",
			SDK:              "iphone",
			Module:           "TravelKit",
			UmbrellaHeader:   "TravelKit/TravelKit.h",
			Author:           "Tripomatic",
			AuthorURL:        "https://travel.sygic.com/en",
			GitHubURL:        "https://github.com/sygic-travel/apple-sdk",
			Documentation:    "Documentation/content_pages/*.md",
			Theme:            "Documentation/theme",
			MinACL:           "public",
			SkipUndocumented: true,
			DownloadBadge:    false,
		},
		PostProcess: PostProcessConfig{
			Selector:           "**/*.html",
			TitleToken:         "BRANDLESS_DOCSET_TITLE",
			Title:              "SDK",
			ProductName:        "TravelKit",
			BrandedProductName: "Sygic Travel SDK",
			VersionToken:       "TK_MODULE_VERSION",
			Verify:             true,
		},
		Output: OutputConfig{
			Directory: "Documentation/html",
		},
		History: HistoryConfig{
			Enabled: false,
			Path:    ".tkdocs/history.db",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// applyDefaults fills fields a partial file left empty.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.Project.Root == "" {
		cfg.Project.Root = def.Project.Root
	}
	if cfg.Project.VersionKey == "" {
		cfg.Project.VersionKey = def.Project.VersionKey
	}
	if cfg.Project.FallbackVersion == "" {
		cfg.Project.FallbackVersion = def.Project.FallbackVersion
	}

	if cfg.Generator.Tool == "" {
		cfg.Generator.Tool = def.Generator.Tool
	}
	if cfg.Generator.FrameworkRoot == "" {
		cfg.Generator.FrameworkRoot = def.Generator.FrameworkRoot
	}
	if cfg.Generator.MinACL == "" {
		cfg.Generator.MinACL = def.Generator.MinACL
	}

	if cfg.PostProcess.Selector == "" {
		cfg.PostProcess.Selector = def.PostProcess.Selector
	}

	if cfg.History.Path == "" {
		cfg.History.Path = def.History.Path
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = def.Watch.Debounce
	}
}

// ToolDependency describes the generator requirement.
func (c *Config) ToolDependency() toolchain.Dependency {
	return toolchain.Dependency{
		Name:        c.Generator.Tool,
		MinVersion:  c.Generator.MinVersion,
		MaxVersion:  c.Generator.MaxVersion,
		InstallHint: c.Generator.InstallHint,
	}
}
