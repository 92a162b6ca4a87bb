// Package vocab implements tokenization and the token-id vocabulary built
// during training. Ids are dense, deterministic and stable across runs:
// retained tokens are assigned ids in ascending lexicographic order after
// the reserved ids, so the same corpus always produces the same mapping
// regardless of document processing order.
package vocab

import (
	"fmt"
	"sort"
)

// ID identifies a token in a trained vocabulary.
type ID int32

// Reserved ids. Every vocabulary carries these regardless of corpus content.
const (
	Unknown ID = 0 // tokens below the minimum count collapse to this id
	Start   ID = 1 // sentence start marker
	End     ID = 2 // sentence end marker

	numReserved = 3
)

// Surface forms of the reserved ids as stored in the vocabulary table.
const (
	UnknownWord = "<unk>"
	StartWord   = "<s>"
	EndWord     = "</s>"
)

// Vocabulary maps token ids to surface strings and corpus-wide unigram counts.
// It is immutable once built.
type Vocabulary struct {
	words  []string
	counts []uint64
	ids    map[string]ID
}

// Builder accumulates raw token counts across a corpus. Counting is the first
// of the two training passes; id assignment happens in Build once the final
// filtered token set is known.
type Builder struct {
	counts map[string]uint64
}

func NewBuilder() *Builder {
	return &Builder{counts: make(map[string]uint64)}
}

// Add counts every token of one tokenized sentence.
func (b *Builder) Add(tokens []string) {
	for _, tok := range tokens {
		b.counts[tok]++
	}
}

// Merge folds another builder's counts into b. Merging is commutative, so
// per-document builders can be combined in any order.
func (b *Builder) Merge(other *Builder) {
	for tok, n := range other.counts {
		b.counts[tok] += n
	}
}

// Build filters tokens below minCount and assigns dense ids to the survivors
// in ascending lexicographic order. Filtered-out occurrences are accounted to
// the unknown id.
func (b *Builder) Build(minCount int) *Vocabulary {
	if minCount < 1 {
		minCount = 1
	}
	retained := make([]string, 0, len(b.counts))
	var unknownCount uint64
	for tok, n := range b.counts {
		if n >= uint64(minCount) {
			retained = append(retained, tok)
		} else {
			unknownCount += n
		}
	}
	sort.Strings(retained)

	v := &Vocabulary{
		words:  make([]string, numReserved, numReserved+len(retained)),
		counts: make([]uint64, numReserved, numReserved+len(retained)),
		ids:    make(map[string]ID, len(retained)),
	}
	v.words[Unknown] = UnknownWord
	v.words[Start] = StartWord
	v.words[End] = EndWord
	v.counts[Unknown] = unknownCount

	for _, tok := range retained {
		v.ids[tok] = ID(len(v.words))
		v.words = append(v.words, tok)
		v.counts = append(v.counts, b.counts[tok])
	}
	return v
}

// Empty returns a vocabulary with only the reserved entries, as produced by
// training on an empty corpus.
func Empty() *Vocabulary {
	return NewBuilder().Build(1)
}

// Restore reassembles a vocabulary from its serialized table. The slice must
// start with the three reserved entries and contain no duplicates.
func Restore(words []string, counts []uint64) (*Vocabulary, error) {
	if len(words) != len(counts) {
		return nil, fmt.Errorf("vocab: %d words but %d counts", len(words), len(counts))
	}
	if len(words) < numReserved {
		return nil, fmt.Errorf("vocab: missing reserved entries")
	}
	if words[Unknown] != UnknownWord || words[Start] != StartWord || words[End] != EndWord {
		return nil, fmt.Errorf("vocab: reserved entries mismatch")
	}
	v := &Vocabulary{
		words:  words,
		counts: counts,
		ids:    make(map[string]ID, len(words)-numReserved),
	}
	for i := numReserved; i < len(words); i++ {
		if words[i] == "" {
			return nil, fmt.Errorf("vocab: empty word at id %d", i)
		}
		if _, dup := v.ids[words[i]]; dup {
			return nil, fmt.Errorf("vocab: duplicate word %q", words[i])
		}
		v.ids[words[i]] = ID(i)
	}
	return v, nil
}

// Size returns the number of retained tokens, excluding the reserved ids.
// A size of zero means the model is untrained ("dumb mode").
func (v *Vocabulary) Size() int {
	return len(v.words) - numReserved
}

// Len returns the total number of ids including the reserved ones.
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Lookup returns the id for a surface token. Tokens outside the vocabulary
// map to Unknown with ok=false.
func (v *Vocabulary) Lookup(token string) (ID, bool) {
	if id, ok := v.ids[token]; ok {
		return id, true
	}
	return Unknown, false
}

// Word returns the surface string for an id.
func (v *Vocabulary) Word(id ID) string {
	if id < 0 || int(id) >= len(v.words) {
		return UnknownWord
	}
	return v.words[id]
}

// Count returns the corpus-wide unigram count for an id.
func (v *Vocabulary) Count(id ID) uint64 {
	if id < 0 || int(id) >= len(v.counts) {
		return 0
	}
	return v.counts[id]
}

// Reserved reports whether the id is one of the reserved marker ids.
func Reserved(id ID) bool {
	return id >= 0 && id < numReserved
}

// MapTokens converts surface tokens to ids, collapsing out-of-vocabulary
// tokens to Unknown.
func (v *Vocabulary) MapTokens(tokens []string) []ID {
	ids := make([]ID, len(tokens))
	for i, tok := range tokens {
		ids[i], _ = v.Lookup(tok)
	}
	return ids
}

// Words returns the full id-ordered word table, including reserved entries.
// The returned slice must not be modified.
func (v *Vocabulary) Words() []string {
	return v.words
}

// Counts returns the full id-ordered unigram count table, including reserved
// entries. The returned slice must not be modified.
func (v *Vocabulary) Counts() []uint64 {
	return v.counts
}

// Equal reports whether two vocabularies define the same id mapping and counts.
func (v *Vocabulary) Equal(other *Vocabulary) bool {
	if v == other {
		return true
	}
	if other == nil || len(v.words) != len(other.words) {
		return false
	}
	for i := range v.words {
		if v.words[i] != other.words[i] || v.counts[i] != other.counts[i] {
			return false
		}
	}
	return true
}
