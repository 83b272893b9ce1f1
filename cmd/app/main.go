package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/wikimd/internal"
	"github.com/starford/wikimd/internal/identity"
	pkgconfig "github.com/starford/wikimd/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(configPath, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	applyArgs(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// applyArgs overlays positional arguments and then flags on cfg.
func applyArgs(cmd *cli.Command, cfg *internal.Config) {
	if v := cmd.Args().Get(0); v != "" {
		cfg.Input.Path = v
	}
	if v := cmd.Args().Get(1); v != "" {
		cfg.Output.Path = v
	}
	if cmd.IsSet("input") {
		cfg.Input.Path = cmd.String("input")
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.IsSet("clean") {
		cfg.Output.Clean = cmd.Bool("clean")
	}
	if cmd.IsSet("watch") {
		cfg.Watch.Enabled = cmd.Bool("watch")
	}
	if cmd.IsSet("metrics-file") {
		cfg.Metrics.Textfile = cmd.String("metrics-file")
	}
	if cmd.IsSet("index-db") {
		cfg.Index.Path = cmd.String("index-db")
	}
	if cmd.Bool("deterministic-ids") {
		cfg.Convert.Identifiers.Mode = identity.ModeDeterministic
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "wikimd",
		Usage:     "Convert a Confluence HTML export into a Jekyll-style Markdown tree",
		ArgsUsage: "[input] [output]",
		Action:    run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "Confluence HTML export directory",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory for the Markdown tree",
			},
			&cli.BoolFlag{
				Name:  "clean",
				Usage: "Empty the output directory before converting",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Re-convert whenever the export changes",
			},
			&cli.BoolFlag{
				Name:  "deterministic-ids",
				Usage: "Derive page identifiers from input filenames",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics to this textfile after each run",
			},
			&cli.StringFlag{
				Name:  "index-db",
				Usage: "Build a SQLite index of the converted site at this path",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
