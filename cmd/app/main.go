package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/semconv/internal"
	pkgconfig "github.com/starford/semconv/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command, optional bool) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	load := pkgconfig.Load[internal.Config]
	if optional {
		load = pkgconfig.LoadOptional[internal.Config]
	}
	if err := load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, false)
	if err != nil {
		return err
	}
	if err := internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithVersion(version)); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}

func convert(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd, true)
	if err != nil {
		return err
	}
	conv := cfg.Conversion
	if cmd.IsSet("annotate") {
		conv.Annotate = cmd.Bool("annotate")
	}
	if cmd.IsSet("enhanced") {
		conv.Enhanced = cmd.Bool("enhanced")
	}
	if cmd.IsSet("workers") {
		conv.Workers = int(cmd.Int("workers"))
	}

	var in io.Reader = os.Stdin
	if path := cmd.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	sum, err := internal.ConvertStream(ctx, internal.NewConverter(conv), internal.ConvertRequest{
		To:      cmd.String("to"),
		In:      in,
		Out:     out,
		Workers: conv.Workers,
	}, logger)
	if err != nil {
		return err
	}
	if sum.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d sentences failed", sum.Failed, sum.Sentences), 2)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "semconv",
		Usage:   "Convert dependency treebanks to layered semantic graphs and back",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Index the corpus directory and serve the HTTP API",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "convert",
				Usage:     "Convert one document from a file or stdin",
				ArgsUsage: "[input]",
				Action:    convert,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "to",
						Usage: "Target representation: semantic (CoNLL-U in) or dependency (JSON graphs in)",
						Value: internal.TargetSemantic,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to this file instead of stdout",
					},
					&cli.BoolFlag{
						Name:  "annotate",
						Usage: "Store per-token attributes on built graphs",
					},
					&cli.BoolFlag{
						Name:  "enhanced",
						Usage: "Read and write the DEPS column",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Parallel conversions (0 = all CPUs)",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
