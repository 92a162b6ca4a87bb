package engine

import (
	"sort"

	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/vocab"
)

// WordFrequency pairs a surface word with its corpus-wide count.
type WordFrequency struct {
	Word  string `json:"word"`
	Count uint64 `json:"count"`
}

// StyleSummary is the read-only analytics view of a trained model.
type StyleSummary struct {
	Trained           bool            `json:"trained"`
	Order             int             `json:"order"`
	VocabularySize    int             `json:"vocabulary_size"`
	Documents         int             `json:"documents"`
	Sentences         int             `json:"sentences"`
	Tokens            uint64          `json:"tokens"`
	AvgSentenceLength float64         `json:"avg_sentence_length"`
	TopWords          []WordFrequency `json:"top_words,omitempty"`
	ContextsPerOrder  []int           `json:"contexts_per_order,omitempty"`
}

// DescribeStyle summarizes what the model has learned: vocabulary size,
// most frequent words and average sentence length. It never mutates the
// model.
func DescribeStyle(m *ngram.Model, topN int) StyleSummary {
	if topN <= 0 {
		topN = 10
	}
	if m.Empty() {
		order := 0
		if m != nil {
			order = m.Order()
		}
		return StyleSummary{Order: order}
	}

	summary := StyleSummary{
		Trained:        true,
		Order:          m.Order(),
		VocabularySize: m.Vocab.Size(),
		Documents:      m.Meta.Documents,
		Sentences:      m.Meta.Sentences,
		Tokens:         m.Meta.Tokens,
	}
	if m.Meta.Sentences > 0 {
		summary.AvgSentenceLength = float64(m.Meta.Tokens) / float64(m.Meta.Sentences)
	}
	for _, t := range m.Tables() {
		summary.ContextsPerOrder = append(summary.ContextsPerOrder, t.Contexts())
	}

	words := m.Vocab.Words()
	counts := m.Vocab.Counts()
	freqs := make([]WordFrequency, 0, m.Vocab.Size())
	for id := range words {
		if vocab.Reserved(vocab.ID(id)) || vocab.IsTerminal(words[id]) {
			continue
		}
		freqs = append(freqs, WordFrequency{Word: words[id], Count: counts[id]})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Word < freqs[j].Word
	})
	if len(freqs) > topN {
		freqs = freqs[:topN]
	}
	summary.TopWords = freqs
	return summary
}
