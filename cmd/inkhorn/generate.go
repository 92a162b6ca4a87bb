package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/inkhorn/inkhorn/internal/engine"
	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/pkg/slm"
)

func generateCmd() *cli.Command {
	var (
		temp      float64
		maxTokens int64
		seed      int64
	)

	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate text in the trained style",
		ArgsUsage: "[SEED TEXT]",
		Flags:     append(commonModelFlags(), samplingFlags(&temp, &maxTokens, &seed)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applySamplingConfig(cmd, LoadConfig(), &temp, &maxTokens, &seed)

			model, err := loadModel(ctx)
			if err != nil {
				return err
			}
			seedText := strings.Join(cmd.Args().Slice(), " ")
			fmt.Println(engine.Generate(model, seedText, samplingOptions(temp, maxTokens, seed)))
			return nil
		},
	}
}

func completeCmd() *cli.Command {
	var (
		temp      float64
		maxTokens int64
		seed      int64
	)

	return &cli.Command{
		Name:      "complete",
		Usage:     "Complete partial text in the trained style",
		ArgsUsage: "PARTIAL TEXT",
		Flags:     append(commonModelFlags(), samplingFlags(&temp, &maxTokens, &seed)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applySamplingConfig(cmd, LoadConfig(), &temp, &maxTokens, &seed)

			partial := strings.Join(cmd.Args().Slice(), " ")
			if partial == "" {
				return fmt.Errorf("no partial text; usage: inkhorn complete PARTIAL TEXT")
			}
			model, err := loadModel(ctx)
			if err != nil {
				return err
			}
			fmt.Println(engine.Complete(model, partial, samplingOptions(temp, maxTokens, seed)))
			return nil
		},
	}
}

func suggestCmd() *cli.Command {
	var n int64

	return &cli.Command{
		Name:      "suggest",
		Usage:     "Suggest likely next words after the given context",
		ArgsUsage: "CONTEXT TEXT",
		Flags: append(commonModelFlags(),
			&cli.Int64Flag{
				Name:        "n",
				Usage:       "number of suggestions",
				Value:       5,
				Destination: &n,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			contextText := strings.Join(cmd.Args().Slice(), " ")
			model, err := loadModel(ctx)
			if err != nil {
				return err
			}
			suggestions := engine.SuggestNext(model, contextText, int(n))
			if len(suggestions) == 0 {
				fmt.Println("no suggestions (model untrained or context unknown)")
				return nil
			}
			for _, s := range suggestions {
				fmt.Printf("%-20s %6.2f%%\n", s.Word, s.Probability*100)
			}
			return nil
		},
	}
}

// loadModel reads the model file named by the shared --model flag.
func loadModel(ctx context.Context) (*ngram.Model, error) {
	log := logger.FromContext(ctx)
	model, err := slm.Load(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	log.Debug("model loaded",
		"path", modelPath,
		"order", model.Order(),
		"vocabulary", model.Vocab.Size())
	return model, nil
}

func samplingOptions(temp float64, maxTokens, seed int64) engine.Options {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return engine.Options{
		Temperature: temp,
		MaxTokens:   int(maxTokens),
		Seed:        seed,
	}
}
