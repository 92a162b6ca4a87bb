// Package trainer runs the end-to-end training pipeline: documents are
// read, filtered and tokenized in parallel, one worker-local set of n-gram
// tables is built per shard, and shards are combined through the
// associative merge. No table cell is ever shared between workers.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inkhorn/inkhorn/internal/logger"
	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/textproc"
	"github.com/inkhorn/inkhorn/internal/vocab"
)

// ErrInvalidConfig is wrapped by all configuration validation failures.
var ErrInvalidConfig = errors.New("invalid training config")

// Config holds the tunable training parameters.
type Config struct {
	// Order is the n-gram order K.
	Order int
	// MinWordCount filters the vocabulary: tokens seen fewer times collapse
	// to the unknown id.
	MinWordCount int
	// Sentence quality bounds, in characters.
	MinSentenceChars int
	MaxSentenceChars int
	// MinAlphaRatio is the minimum letters-and-spaces fraction per sentence.
	MinAlphaRatio float64
	// Workers sizes the document worker pool. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the standard training parameters.
func DefaultConfig() Config {
	return Config{
		Order:            ngram.DefaultOrder,
		MinWordCount:     2,
		MinSentenceChars: 10,
		MaxSentenceChars: 500,
		MinAlphaRatio:    0.7,
	}
}

// Validate rejects configurations before any document is touched.
func (c Config) Validate() error {
	if c.Order < 1 {
		return fmt.Errorf("%w: order %d, must be >= 1", ErrInvalidConfig, c.Order)
	}
	if c.MinWordCount < 1 {
		return fmt.Errorf("%w: min word count %d, must be >= 1", ErrInvalidConfig, c.MinWordCount)
	}
	if c.MinSentenceChars < 1 || c.MaxSentenceChars < c.MinSentenceChars {
		return fmt.Errorf("%w: sentence bounds %d..%d", ErrInvalidConfig, c.MinSentenceChars, c.MaxSentenceChars)
	}
	if c.MinAlphaRatio < 0 || c.MinAlphaRatio > 1 {
		return fmt.Errorf("%w: alpha ratio %v outside [0,1]", ErrInvalidConfig, c.MinAlphaRatio)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) filterConfig() textproc.FilterConfig {
	return textproc.FilterConfig{
		MinChars:      c.MinSentenceChars,
		MaxChars:      c.MaxSentenceChars,
		MinAlphaRatio: c.MinAlphaRatio,
	}
}

func (c Config) workers(docs int) int {
	w := c.Workers
	if w == 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > docs {
		w = docs
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Stats reports what happened during one training run.
type Stats struct {
	RunID              string        `json:"run_id"`
	DocumentsProcessed int           `json:"documents_processed"`
	DocumentsSkipped   int           `json:"documents_skipped"`
	SentencesAccepted  int           `json:"sentences_accepted"`
	SentencesRejected  int           `json:"sentences_rejected"`
	VocabularySize     int           `json:"vocabulary_size"`
	TotalTokens        uint64        `json:"total_tokens"`
	Duration           time.Duration `json:"duration"`
}

// EmptyCorpus reports whether no sentence survived filtering. Training on
// an empty corpus is not an error; it yields an untrained model.
func (s Stats) EmptyCorpus() bool {
	return s.SentencesAccepted == 0
}

// docResult is the phase-one output for a single document: tokenized
// accepted sentences plus filter diagnostics. Documents that failed to read
// carry err and contribute nothing else.
type docResult struct {
	name      string
	sentences [][]string
	accepted  int
	rejected  int
	err       error
}

// Train builds a model from raw documents. Unreadable documents are
// skipped and counted; only configuration errors and cancellation abort
// the run. The returned model is a fully merged immutable snapshot.
func Train(ctx context.Context, docs []textproc.Source, cfg Config, log logger.Logger) (*ngram.Model, Stats, error) {
	if log == nil {
		log = logger.Default()
	}
	stats := Stats{RunID: uuid.NewString()}
	if err := cfg.Validate(); err != nil {
		return nil, stats, err
	}
	start := time.Now()

	// Phase one: read, filter and tokenize every document in parallel.
	results, err := mapDocuments(ctx, docs, cfg.workers(len(docs)), func(src textproc.Source) docResult {
		return prepareDocument(src, cfg.filterConfig())
	})
	if err != nil {
		return nil, stats, err
	}

	builder := vocab.NewBuilder()
	for _, res := range results {
		if res.err != nil {
			stats.DocumentsSkipped++
			log.Warn("skipping unreadable document", "document", res.name, "error", res.err)
			continue
		}
		stats.DocumentsProcessed++
		stats.SentencesAccepted += res.accepted
		stats.SentencesRejected += res.rejected
		for _, tokens := range res.sentences {
			builder.Add(tokens)
		}
	}

	if stats.SentencesAccepted == 0 {
		log.Warn("no sentences survived filtering, model stays untrained",
			"documents", len(docs), "rejected", stats.SentencesRejected)
		stats.Duration = time.Since(start)
		return ngram.Dumb(), stats, nil
	}

	// The vocabulary is built once over the merged counts; id assignment is
	// deterministic, so shard order cannot influence it.
	v := builder.Build(cfg.MinWordCount)
	stats.VocabularySize = v.Size()

	// Phase two: build worker-local tables and fold them together.
	model, err := aggregate(ctx, results, v, cfg)
	if err != nil {
		return nil, stats, err
	}
	model.Meta.MinWordCount = cfg.MinWordCount
	model.Meta.Documents = stats.DocumentsProcessed
	now := time.Now().UTC()
	model.Meta.CreatedAt = now
	model.Meta.UpdatedAt = now
	stats.TotalTokens = model.Meta.Tokens
	stats.Duration = time.Since(start)

	log.Info("training complete",
		"run_id", stats.RunID,
		"documents", stats.DocumentsProcessed,
		"skipped", stats.DocumentsSkipped,
		"sentences", stats.SentencesAccepted,
		"vocabulary", stats.VocabularySize,
		"duration", stats.Duration)
	return model, stats, nil
}

// prepareDocument is the per-document unit of work: read, clean, segment,
// filter, tokenize. It never touches shared state.
func prepareDocument(src textproc.Source, cfg textproc.FilterConfig) docResult {
	res := docResult{name: src.Name()}
	text, err := textproc.Read(src)
	if err != nil {
		res.err = err
		return res
	}
	sc := textproc.ScanSentences(text, cfg)
	for sc.Scan() {
		tokens := vocab.Tokenize(sc.Text())
		if len(tokens) == 0 {
			continue
		}
		res.sentences = append(res.sentences, tokens)
	}
	fs := sc.Stats()
	res.accepted = len(res.sentences)
	res.rejected = fs.Rejected + (fs.Accepted - res.accepted)
	return res
}

// mapDocuments distributes documents across a fixed worker pool. Results
// come back indexed by document so diagnostics stay stable, though the
// final tables would be identical in any order.
func mapDocuments(ctx context.Context, docs []textproc.Source, workers int, fn func(textproc.Source) docResult) ([]docResult, error) {
	results := make([]docResult, len(docs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = fn(docs[i])
			}
		}()
	}

	var cancelled error
feed:
	for i := range docs {
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}
	return results, nil
}

// aggregate builds one local model per worker shard and merges the shards.
// Merging is commutative and associative, so the reduction order is free.
func aggregate(ctx context.Context, results []docResult, v *vocab.Vocabulary, cfg Config) (*ngram.Model, error) {
	workers := cfg.workers(len(results))
	locals := make([]*ngram.Model, workers)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			local := ngram.New(cfg.Order, v)
			for i := range jobs {
				for _, tokens := range results[i].sentences {
					local.ObserveSentence(v.MapTokens(tokens))
				}
			}
			locals[shard] = local
		}(w)
	}

	var cancelled error
feed:
	for i := range results {
		if results[i].err != nil {
			continue
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, cancelled
	}

	model := ngram.New(cfg.Order, v)
	for _, local := range locals {
		if local == nil {
			continue
		}
		if err := model.Merge(local); err != nil {
			return nil, err
		}
	}
	return model, nil
}
