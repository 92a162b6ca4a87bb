package ngram

import (
	"fmt"
	"time"

	"github.com/inkhorn/inkhorn/internal/vocab"
)

// DefaultOrder is the standard n-gram order K.
const DefaultOrder = 3

// Metadata describes how and when a model was trained.
type Metadata struct {
	Order        int       `json:"order"`
	MinWordCount int       `json:"min_word_count"`
	Documents    int       `json:"documents"`
	Sentences    int       `json:"sentences"`
	Tokens       uint64    `json:"tokens"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Model is the trained unit: the vocabulary, one frequency table per order
// 1..K and the training metadata. A Model is mutated only while training
// builds it; afterwards it is treated as an immutable snapshot that any
// number of generation calls may read concurrently.
type Model struct {
	Meta   Metadata
	Vocab  *vocab.Vocabulary
	tables []*Table
}

// New creates an empty model of the given order over the given vocabulary.
func New(order int, v *vocab.Vocabulary) *Model {
	if order < 1 {
		order = 1
	}
	tables := make([]*Table, order)
	for n := 1; n <= order; n++ {
		tables[n-1] = NewTable(n)
	}
	return &Model{
		Meta:   Metadata{Order: order},
		Vocab:  v,
		tables: tables,
	}
}

// Dumb returns the untrained placeholder model used before any corpus has
// been ingested. Its vocabulary holds only the reserved ids.
func Dumb() *Model {
	m := New(DefaultOrder, vocab.Empty())
	now := time.Now().UTC()
	m.Meta.CreatedAt = now
	m.Meta.UpdatedAt = now
	return m
}

// Restore assembles a model from deserialized parts. Tables must cover
// orders 1..len(tables) in that order.
func Restore(meta Metadata, v *vocab.Vocabulary, tables []*Table) (*Model, error) {
	if meta.Order < 1 || meta.Order != len(tables) {
		return nil, fmt.Errorf("ngram: metadata order %d does not match %d tables", meta.Order, len(tables))
	}
	for i, t := range tables {
		if t.Order() != i+1 {
			return nil, fmt.Errorf("ngram: table %d has order %d", i, t.Order())
		}
	}
	m := &Model{Meta: meta, Vocab: v, tables: tables}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Order returns the model's n-gram order K.
func (m *Model) Order() int { return m.Meta.Order }

// Empty reports whether the model is untrained. Generation falls back to
// template output for empty models.
func (m *Model) Empty() bool {
	return m == nil || m.Vocab == nil || m.Vocab.Size() == 0
}

// Table returns the table for order n (1 <= n <= K).
func (m *Model) Table(n int) *Table {
	return m.tables[n-1]
}

// Tables returns all tables in ascending order.
func (m *Model) Tables() []*Table { return m.tables }

// ObserveSentence records one tokenized sentence in every table. The
// sentence is padded with K-1 start markers and one end marker, so the
// tables capture sentence-initial and sentence-final statistics.
func (m *Model) ObserveSentence(ids []vocab.ID) {
	if len(ids) == 0 {
		return
	}
	k := m.Order()
	padded := make([]vocab.ID, 0, k-1+len(ids)+1)
	for i := 0; i < k-1; i++ {
		padded = append(padded, vocab.Start)
	}
	padded = append(padded, ids...)
	padded = append(padded, vocab.End)

	for pos := k - 1; pos < len(padded); pos++ {
		next := padded[pos]
		for n := 1; n <= k; n++ {
			m.tables[n-1].Observe(padded[pos-(n-1):pos], next)
		}
	}
	m.Meta.Sentences++
	m.Meta.Tokens += uint64(len(ids))
}

// Merge folds other's tables and metadata into m. Both models must share
// the same order and an identical vocabulary; merge order never affects the
// result.
func (m *Model) Merge(other *Model) error {
	if other.Order() != m.Order() {
		return fmt.Errorf("ngram: order mismatch %d vs %d", m.Order(), other.Order())
	}
	if m.Vocab != other.Vocab && !m.Vocab.Equal(other.Vocab) {
		return fmt.Errorf("ngram: cannot merge models with different vocabularies")
	}
	for i := range m.tables {
		if err := m.tables[i].Merge(other.tables[i]); err != nil {
			return err
		}
	}
	m.Meta.Documents += other.Meta.Documents
	m.Meta.Sentences += other.Meta.Sentences
	m.Meta.Tokens += other.Meta.Tokens
	return nil
}

// Validate checks the model's structural invariants, including every
// table's count consistency and that all referenced ids exist in the
// vocabulary.
func (m *Model) Validate() error {
	if m.Vocab == nil {
		return fmt.Errorf("ngram: model has no vocabulary")
	}
	limit := vocab.ID(m.Vocab.Len())
	for _, t := range m.tables {
		if err := t.Validate(); err != nil {
			return err
		}
		err := t.ForEach(func(ctx []vocab.ID, d *Dist) error {
			for _, id := range ctx {
				if id < 0 || id >= limit {
					return fmt.Errorf("ngram: dangling context id %d", id)
				}
			}
			for id := range d.Next {
				if id < 0 || id >= limit {
					return fmt.Errorf("ngram: dangling next-token id %d", id)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two models hold identical vocabulary and counts.
// Metadata timestamps are ignored.
func (m *Model) Equal(other *Model) bool {
	if m.Order() != other.Order() || !m.Vocab.Equal(other.Vocab) {
		return false
	}
	for i := range m.tables {
		if !m.tables[i].Equal(other.tables[i]) {
			return false
		}
	}
	return true
}
