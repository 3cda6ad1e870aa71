package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/anchor/internal"
	"github.com/starford/anchor/internal/models"
	"github.com/starford/anchor/internal/printer"
	pkgconfig "github.com/starford/anchor/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, internal.WithConfig(cfg))
}

func list(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.PrintReferences(ctx, cfg, internal.ListFilter{
		Query:  cmd.String("query"),
		Status: models.Status(cmd.String("status")),
		Tag:    cmd.String("tag"),
		JSON:   cmd.Bool("json"),
	}, printer.New())
}

func main() {
	cmd := &cli.Command{
		Name:   "anchor",
		Usage:  "Menu-bar tracker for the folders and files you are working on",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file (optional)",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the background service and local API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve reference tools over MCP on stdio",
				Action: serveMCP,
			},
			{
				Name:   "list",
				Usage:  "Print tracked references",
				Action: list,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Match name, path or tags"},
					&cli.StringFlag{Name: "status", Usage: "Only references with this status"},
					&cli.StringFlag{Name: "tag", Usage: "Only references with this tag"},
					&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
