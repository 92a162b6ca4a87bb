package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/internal/textproc"
	"github.com/inkhorn/inkhorn/internal/trainer"
	"github.com/inkhorn/inkhorn/pkg/slm"
)

func trainCmd() *cli.Command {
	var (
		order      int64
		minCount   int64
		minChars   int64
		maxChars   int64
		alphaRatio float64
		workers    int64
	)

	return &cli.Command{
		Name:      "train",
		Usage:     "Train a model from text or PDF documents",
		ArgsUsage: "FILE_OR_DIR ...",
		Flags: append(commonModelFlags(),
			&cli.Int64Flag{
				Name:        "order",
				Aliases:     []string{"k"},
				Usage:       "n-gram order",
				Value:       3,
				Destination: &order,
			},
			&cli.Int64Flag{
				Name:        "min-count",
				Usage:       "minimum word count to keep a word in the vocabulary",
				Value:       2,
				Destination: &minCount,
			},
			&cli.Int64Flag{
				Name:        "min-chars",
				Usage:       "minimum sentence length in characters",
				Value:       10,
				Destination: &minChars,
			},
			&cli.Int64Flag{
				Name:        "max-chars",
				Usage:       "maximum sentence length in characters",
				Value:       500,
				Destination: &maxChars,
			},
			&cli.Float64Flag{
				Name:        "alpha-ratio",
				Usage:       "minimum letters-and-spaces fraction per sentence",
				Value:       0.7,
				Destination: &alphaRatio,
			},
			&cli.Int64Flag{
				Name:        "workers",
				Usage:       "worker pool size (0 = number of CPUs)",
				Destination: &workers,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyTrainConfig(cmd, LoadConfig(),
				&order, &minCount, &minChars, &maxChars, &alphaRatio, &workers)

			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return fmt.Errorf("no input files; usage: inkhorn train FILE_OR_DIR ...")
			}
			sources, err := collectSources(paths)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no trainable documents found under %s", strings.Join(paths, ", "))
			}

			cfg := trainer.Config{
				Order:            int(order),
				MinWordCount:     int(minCount),
				MinSentenceChars: int(minChars),
				MaxSentenceChars: int(maxChars),
				MinAlphaRatio:    alphaRatio,
				Workers:          int(workers),
			}
			model, stats, err := trainer.Train(ctx, sources, cfg, log)
			if err != nil {
				return err
			}
			if stats.EmptyCorpus() {
				log.Warn("no usable sentences found; writing an untrained model")
			}

			if err := slm.Save(model, modelPath); err != nil {
				return fmt.Errorf("save model: %w", err)
			}

			fmt.Printf("model:      %s\n", modelPath)
			fmt.Printf("documents:  %s processed, %s skipped\n",
				humanize.Comma(int64(stats.DocumentsProcessed)), humanize.Comma(int64(stats.DocumentsSkipped)))
			fmt.Printf("sentences:  %s accepted, %s rejected\n",
				humanize.Comma(int64(stats.SentencesAccepted)), humanize.Comma(int64(stats.SentencesRejected)))
			fmt.Printf("vocabulary: %s words\n", humanize.Comma(int64(stats.VocabularySize)))
			fmt.Printf("tokens:     %s\n", humanize.Comma(int64(stats.TotalTokens)))
			fmt.Printf("duration:   %s\n", stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

var trainableExts = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// collectSources expands files and directories into document sources.
// Directories are walked recursively; only known extensions are picked up.
func collectSources(paths []string) ([]textproc.Source, error) {
	var sources []textproc.Source
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			sources = append(sources, textproc.FileSource(path))
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if trainableExts[strings.ToLower(filepath.Ext(p))] {
				sources = append(sources, textproc.FileSource(p))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sources, nil
}
