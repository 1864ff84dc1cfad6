package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	"github.com/symptomly/triage/internal/adapters/ai"
	"github.com/symptomly/triage/internal/adapters/ai/openai"
	"github.com/symptomly/triage/internal/indexer"
	"github.com/symptomly/triage/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "triage-indexer",
		Usage: "Build the exemplar similarity artifacts for the triage service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "csv",
				Aliases: []string{"c"},
				Usage:   "Path to a curated exemplar CSV (falls back to the built-in seed list)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Output directory for the artifact pair",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "all-minilm",
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of concurrent embedding workers",
				Value: maxInt(runtime.NumCPU()/2, 1),
			},
		},
		Before: setupLogger,
		Action: buildCommand,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func buildCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	ix := indexer.New(
		indexer.WithEmbedder(embedder),
		indexer.WithCSVPath(c.String("csv")),
		indexer.WithOutputDir(c.String("out")),
		indexer.WithPoolSize(c.Int("pool-size")),
	)

	art, err := ix.Build(ctx)
	if err != nil {
		return fmt.Errorf("artifact build failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Wrote %d exemplars (dim %d) to %s\n",
		len(art.Meta), art.Dim, c.String("out"))
	return nil
}

func setupLogger(c *cli.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(c.String("log-level")); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
	}
	return nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
