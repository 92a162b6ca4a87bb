// Package engine generates text from a trained model. Each call holds a
// read-only view of the model and its own context window and random source,
// so any number of calls may run concurrently against the same model.
package engine

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/vocab"
)

// DefaultMaxTokens bounds generation when the caller does not.
const DefaultMaxTokens = 100

// Options controls one generation call.
type Options struct {
	// MaxTokens caps the number of generated tokens. Zero means
	// DefaultMaxTokens.
	MaxTokens int
	// Temperature controls sampling sharpness; zero or below selects the
	// highest-count candidate deterministically.
	Temperature float64
	// Seed seeds the default random source.
	Seed int64
	// Rand, when set, replaces the default source entirely.
	Rand *rand.Rand
}

func (o Options) sampler() *Sampler {
	if o.Rand != nil {
		return NewSamplerFrom(o.Rand, o.Temperature)
	}
	return NewSampler(o.Seed, o.Temperature)
}

// Generate produces text from the model, seeded by seedText. Untrained
// models produce template output regardless of temperature. Output is
// deterministic for a fixed model, seed and temperature.
func Generate(m *ngram.Model, seedText string, opts Options) string {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	s := opts.sampler()
	if m.Empty() {
		return dumbText(s, seedText, opts.MaxTokens)
	}

	out := seedIDs(m.Vocab, seedText)
	window := contextWindow(m.Order(), out)

	for i := 0; i < opts.MaxTokens; i++ {
		id, ok := nextToken(m, s, window)
		if !ok || id == vocab.End {
			break
		}
		out = append(out, id)
		window = append(window, id)
		if max := m.Order() - 1; len(window) > max {
			window = window[len(window)-max:]
		}
	}
	return Render(m.Vocab, out)
}

// Complete is Generate with the context initialized from partial text. The
// rendered output includes the recognized part of the prompt.
func Complete(m *ngram.Model, partialText string, opts Options) string {
	return Generate(m, partialText, opts)
}

// Suggestion is one ranked next-word candidate.
type Suggestion struct {
	Word        string  `json:"word"`
	Probability float64 `json:"probability"`
}

// SuggestNext ranks the n most likely tokens to follow contextText, backing
// off across orders exactly like Generate. It returns nil for untrained
// models.
func SuggestNext(m *ngram.Model, contextText string, n int) []Suggestion {
	if n <= 0 {
		n = 5
	}
	if m.Empty() {
		return nil
	}
	window := contextWindow(m.Order(), seedIDs(m.Vocab, contextText))
	ids, counts, ok := backoff(m, window)
	if !ok {
		return nil
	}
	var total uint64
	for _, c := range counts {
		total += c
	}
	out := make([]Suggestion, len(ids))
	for i, id := range ids {
		out[i] = Suggestion{
			Word:        m.Vocab.Word(id),
			Probability: float64(counts[i]) / float64(total),
		}
	}
	// Highest probability first; equal counts keep ascending id order.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Probability > out[j-1].Probability; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// seedIDs tokenizes seed text and keeps only in-vocabulary ids, matching
// how the training stream was tokenized.
func seedIDs(v *vocab.Vocabulary, text string) []vocab.ID {
	var ids []vocab.ID
	for _, tok := range vocab.Tokenize(text) {
		if id, ok := v.Lookup(tok); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// contextWindow returns the initial bounded context: the last K-1 seed ids,
// or start markers when there is no usable seed.
func contextWindow(order int, seed []vocab.ID) []vocab.ID {
	max := order - 1
	if len(seed) == 0 {
		window := make([]vocab.ID, max)
		for i := range window {
			window[i] = vocab.Start
		}
		return window
	}
	if len(seed) > max {
		seed = seed[len(seed)-max:]
	}
	return append([]vocab.ID(nil), seed...)
}

// nextToken draws the next token for the current window.
func nextToken(m *ngram.Model, s *Sampler, window []vocab.ID) (vocab.ID, bool) {
	ids, counts, ok := backoff(m, window)
	if !ok {
		return 0, false
	}
	return s.Pick(ids, counts), true
}

// backoff walks orders K down to 1 and returns the first distribution whose
// context matches the tail of the window. The order-1 table has an entry
// for every retained token, so a trained model always resolves.
func backoff(m *ngram.Model, window []vocab.ID) ([]vocab.ID, []uint64, bool) {
	for n := m.Order(); n >= 1; n-- {
		need := n - 1
		if need > len(window) {
			continue
		}
		d, ok := m.Table(n).Lookup(window[len(window)-need:])
		if !ok {
			continue
		}
		if ids, counts := sampleable(d); len(ids) > 0 {
			return ids, counts, true
		}
	}
	return nil, nil, false
}

// sampleable filters marker ids out of a distribution. The unknown id is
// never emitted as text and the start marker is never a valid continuation.
func sampleable(d *ngram.Dist) ([]vocab.ID, []uint64) {
	ids, counts := d.Candidates()
	keepIDs := ids[:0:len(ids)]
	keepCounts := counts[:0:len(counts)]
	for i, id := range ids {
		if id == vocab.Unknown || id == vocab.Start {
			continue
		}
		keepIDs = append(keepIDs, id)
		keepCounts = append(keepCounts, counts[i])
	}
	return keepIDs, keepCounts
}

// Render converts generated ids back to surface text: words separated by
// spaces, punctuation attached to the preceding word, first letter
// capitalized.
func Render(v *vocab.Vocabulary, ids []vocab.ID) string {
	var b strings.Builder
	wroteWord := false
	for _, id := range ids {
		w := v.Word(id)
		if vocab.IsTerminal(w) {
			b.WriteString(w)
			continue
		}
		if wroteWord {
			b.WriteByte(' ')
		} else {
			w = capitalize(w)
			wroteWord = true
		}
		b.WriteString(w)
	}
	return b.String()
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}
