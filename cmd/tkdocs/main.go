package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/sygic-travel/tkdocs/cmd/tkdocs/commands"
	"github.com/sygic-travel/tkdocs/internal/foundation/errors"
	"github.com/sygic-travel/tkdocs/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("tkdocs"),
		kong.Description("Build the TravelKit SDK reference documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	global := commands.NewGlobal()
	global.Logger = slog.Default()
	err := parser.Run(global, &cli)
	errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
