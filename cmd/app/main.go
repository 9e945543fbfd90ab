package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/scribe/internal"
	pkgconfig "github.com/starford/scribe/pkg/config"
)

func loadOptions(cmd *cli.Command) ([]internal.Option, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if p := cmd.String("db"); p != "" {
		cfg.SQLite.Path = p
	}
	return []internal.Option{internal.WithConfig(cfg)}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func reindex(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	rep, err := internal.Reindex(ctx, opts...)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	fmt.Fprintf(os.Stdout, "indexed %d of %d notes (removed %d, failed %d) in %s\n",
		rep.Indexed, rep.Total, rep.Removed, rep.Failed, rep.Duration)
	if rep.Failed > 0 {
		return fmt.Errorf("reindex: %d notes failed", rep.Failed)
	}
	return nil
}

func export(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.Export(ctx, cmd.String("out"), opts...)
}

func importBackup(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Import(ctx, cmd.String("in"), opts...)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Fprintf(os.Stdout, "imported %d notes (%d already present), indexed %d\n",
		res.Inserted, res.Existing, res.Index.Indexed)
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func main() {
	cmd := &cli.Command{
		Name:   "scribe",
		Usage:  "Markdown notes with a wiki-link and tag index",
		Action: serve,
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
				Name:    "db",
				Usage:   "SQLite database path (overrides sqlite.path)",
				Sources: cli.EnvVars("SCRIBE_DB"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the link and tag index from every note",
				Action: reindex,
			},
			{
				Name:   "export",
				Usage:  "Write a JSON backup of notes and the index",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file", Value: "scribe-backup.json"},
				},
			},
			{
				Name:   "import",
				Usage:  "Load a JSON backup and rebuild the index",
				Action: importBackup,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "Backup file", Required: true},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
