package api

import (
	"time"

	"github.com/inkhorn/inkhorn/internal/engine"
	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/trainer"
)

// ResponseError is the error payload carried inside the error envelope.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// TrainDocument is one raw document submitted for training.
type TrainDocument struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// TrainRequest configures one training run. Unset fields fall back to the
// server defaults.
type TrainRequest struct {
	Documents        []TrainDocument `json:"documents"`
	Order            *int            `json:"order,omitempty"`
	MinWordCount     *int            `json:"min_word_count,omitempty"`
	MinSentenceChars *int            `json:"min_sentence_chars,omitempty"`
	MaxSentenceChars *int            `json:"max_sentence_chars,omitempty"`
	MinAlphaRatio    *float64        `json:"min_alpha_ratio,omitempty"`
}

// TrainResponse reports the outcome of a training run.
type TrainResponse struct {
	Stats       trainer.Stats `json:"stats"`
	EmptyCorpus bool          `json:"empty_corpus"`
	Created     int64         `json:"created"`
}

// GenerateRequest asks for generated text. Seed is the optional seed text;
// RandomSeed pins the sampler for reproducible output.
type GenerateRequest struct {
	Seed        string   `json:"seed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	RandomSeed  *int64   `json:"random_seed,omitempty"`
}

// CompleteRequest asks for a completion of partial text.
type CompleteRequest struct {
	Text        string   `json:"text"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	RandomSeed  *int64   `json:"random_seed,omitempty"`
}

// TextResponse carries a single generated or completed text.
type TextResponse struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Created int64  `json:"created"`
}

// SuggestRequest asks for ranked next-word candidates after Context.
type SuggestRequest struct {
	Context string `json:"context"`
	N       *int   `json:"n,omitempty"`
}

// SuggestResponse carries ranked next-word candidates.
type SuggestResponse struct {
	Suggestions []engine.Suggestion `json:"suggestions"`
}

// ModelResponse describes the currently loaded model.
type ModelResponse struct {
	Trained        bool           `json:"trained"`
	Meta           ngram.Metadata `json:"meta"`
	VocabularySize int            `json:"vocabulary_size"`
	TrainedAt      time.Time      `json:"trained_at"`
}
