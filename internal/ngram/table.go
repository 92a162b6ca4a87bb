// Package ngram implements the multi-order frequency tables at the core of
// the language model, and the Model aggregate that owns them. Tables support
// commutative, associative merging so training can shard per document and
// combine results without locking.
package ngram

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/inkhorn/inkhorn/internal/vocab"
)

// Dist is the observed next-token distribution for one context.
type Dist struct {
	// Total is the number of times the context was observed followed by any
	// token. It always equals the sum of Next.
	Total uint64
	Next  map[vocab.ID]uint64
}

// Candidates returns the next-token ids in ascending id order with their
// counts. The ascending order is what makes tie-breaking at zero temperature
// deterministic.
func (d *Dist) Candidates() ([]vocab.ID, []uint64) {
	ids := make([]vocab.ID, 0, len(d.Next))
	for id := range d.Next {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	counts := make([]uint64, len(ids))
	for i, id := range ids {
		counts[i] = d.Next[id]
	}
	return ids, counts
}

// Table holds the (context → next-token → count) frequencies for one order.
// A Table of order n keys on contexts of exactly n-1 token ids; the order-1
// table has a single empty context.
type Table struct {
	order int
	dists map[string]*Dist
}

// NewTable creates an empty table for the given order (n >= 1).
func NewTable(order int) *Table {
	return &Table{order: order, dists: make(map[string]*Dist)}
}

// Order returns the table's n-gram order.
func (t *Table) Order() int { return t.order }

// Contexts returns the number of distinct contexts observed.
func (t *Table) Contexts() int { return len(t.dists) }

// Key packs a context id sequence into a map key. Ids encode as fixed-width
// little-endian words so keys sort bytewise in id order.
func Key(ctx []vocab.ID) string {
	buf := make([]byte, 4*len(ctx))
	for i, id := range ctx {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(id))
	}
	return string(buf)
}

// ParseKey unpacks a context key produced by Key.
func ParseKey(key string) ([]vocab.ID, error) {
	if len(key)%4 != 0 {
		return nil, fmt.Errorf("ngram: malformed context key of %d bytes", len(key))
	}
	ctx := make([]vocab.ID, len(key)/4)
	for i := range ctx {
		ctx[i] = vocab.ID(binary.LittleEndian.Uint32([]byte(key[4*i : 4*i+4])))
	}
	return ctx, nil
}

// Observe records one occurrence of next following ctx. The context must be
// exactly order-1 ids long.
func (t *Table) Observe(ctx []vocab.ID, next vocab.ID) {
	t.add(Key(ctx), next, 1)
}

func (t *Table) add(key string, next vocab.ID, n uint64) {
	d, ok := t.dists[key]
	if !ok {
		d = &Dist{Next: make(map[vocab.ID]uint64)}
		t.dists[key] = d
	}
	d.Next[next] += n
	d.Total += n
}

// Record adds count occurrences of next following ctx. Deserialization uses
// it to rebuild a table from stored counts.
func (t *Table) Record(ctx []vocab.ID, next vocab.ID, count uint64) {
	if count == 0 {
		return
	}
	t.add(Key(ctx), next, count)
}

// Lookup returns the distribution for a context, if it was ever observed.
func (t *Table) Lookup(ctx []vocab.ID) (*Dist, bool) {
	d, ok := t.dists[Key(ctx)]
	return d, ok
}

// Merge folds other into t. Every (context, next) count becomes the sum of
// both inputs; the operation is commutative and associative.
func (t *Table) Merge(other *Table) error {
	if other.order != t.order {
		return fmt.Errorf("ngram: cannot merge order-%d table into order-%d", other.order, t.order)
	}
	for key, d := range other.dists {
		for next, n := range d.Next {
			t.add(key, next, n)
		}
	}
	return nil
}

// ForEach visits every context in deterministic (bytewise key) order. Used
// by serialization so identical tables always produce identical bytes.
func (t *Table) ForEach(fn func(ctx []vocab.ID, d *Dist) error) error {
	keys := make([]string, 0, len(t.dists))
	for key := range t.dists {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ctx, err := ParseKey(key)
		if err != nil {
			return err
		}
		if err := fn(ctx, t.dists[key]); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the table's structural invariants: context widths match
// the order, distributions are non-empty and totals equal the sum of their
// next-token counts.
func (t *Table) Validate() error {
	for key, d := range t.dists {
		if len(key) != 4*(t.order-1) {
			return fmt.Errorf("ngram: order-%d table has context of %d ids", t.order, len(key)/4)
		}
		if len(d.Next) == 0 {
			return fmt.Errorf("ngram: empty distribution in order-%d table", t.order)
		}
		var sum uint64
		for _, n := range d.Next {
			if n == 0 {
				return fmt.Errorf("ngram: zero count in order-%d table", t.order)
			}
			sum += n
		}
		if sum != d.Total {
			return fmt.Errorf("ngram: order-%d context total %d does not match sum %d", t.order, d.Total, sum)
		}
	}
	return nil
}

// Equal reports whether two tables hold identical counts.
func (t *Table) Equal(other *Table) bool {
	if t.order != other.order || len(t.dists) != len(other.dists) {
		return false
	}
	for key, d := range t.dists {
		od, ok := other.dists[key]
		if !ok || od.Total != d.Total || len(od.Next) != len(d.Next) {
			return false
		}
		for next, n := range d.Next {
			if od.Next[next] != n {
				return false
			}
		}
	}
	return true
}
