package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/inkhorn/inkhorn/internal/engine"
)

func describeCmd() *cli.Command {
	var topN int64

	return &cli.Command{
		Name:  "describe",
		Usage: "Summarize what a trained model has learned",
		Flags: append(commonModelFlags(),
			&cli.Int64Flag{
				Name:        "top",
				Usage:       "number of top words to list",
				Value:       10,
				Destination: &topN,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			model, err := loadModel(ctx)
			if err != nil {
				return err
			}
			style := engine.DescribeStyle(model, int(topN))
			if !style.Trained {
				fmt.Println("model is untrained")
				return nil
			}

			fmt.Printf("order:                %d\n", style.Order)
			fmt.Printf("vocabulary:           %s words\n", humanize.Comma(int64(style.VocabularySize)))
			fmt.Printf("documents:            %s\n", humanize.Comma(int64(style.Documents)))
			fmt.Printf("sentences:            %s\n", humanize.Comma(int64(style.Sentences)))
			fmt.Printf("tokens:               %s\n", humanize.Comma(int64(style.Tokens)))
			fmt.Printf("avg sentence length:  %.1f words\n", style.AvgSentenceLength)
			for i, n := range style.ContextsPerOrder {
				fmt.Printf("order-%d contexts:     %s\n", i+1, humanize.Comma(int64(n)))
			}
			if len(style.TopWords) > 0 {
				fmt.Println("top words:")
				for _, w := range style.TopWords {
					fmt.Printf("  %-20s %s\n", w.Word, humanize.Comma(int64(w.Count)))
				}
			}
			fmt.Printf("trained:              %s\n", humanize.Time(model.Meta.UpdatedAt))
			return nil
		},
	}
}
