package slm

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	json "github.com/goccy/go-json"

	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/vocab"
)

// Section payload versions. Bump when a payload layout changes.
const (
	metaPayloadVersion   uint32 = 1
	vocabPayloadVersion  uint32 = 1
	tablesPayloadVersion uint32 = 1
)

// encodeMeta serializes training metadata as JSON. Metadata is small and
// evolves more often than the count payloads, so a self-describing encoding
// is worth the bytes.
func encodeMeta(meta ngram.Metadata) ([]byte, error) {
	return json.Marshal(meta)
}

func decodeMeta(data []byte) (ngram.Metadata, error) {
	var meta ngram.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("%w: model meta: %v", ErrCorruptModel, err)
	}
	return meta, nil
}

// encodeVocab lays the vocabulary out as a u32 entry count followed by
// (u32 length, word bytes, u64 count) records in id order. Id order is the
// storage order, so ids survive a round trip implicitly.
func encodeVocab(v *vocab.Vocabulary) []byte {
	words := v.Words()
	counts := v.Counts()

	var buf bytes.Buffer
	writeUint32(&buf, uint32(len(words)))
	for i, w := range words {
		writeUint32(&buf, uint32(len(w)))
		buf.WriteString(w)
		writeUint64(&buf, counts[i])
	}
	return buf.Bytes()
}

func decodeVocab(data []byte) (*vocab.Vocabulary, error) {
	cur := cursor{data: data}
	n, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(len(data)) {
		return nil, fmt.Errorf("%w: vocabulary entry count %d exceeds payload", ErrCorruptModel, n)
	}
	words := make([]string, n)
	counts := make([]uint64, n)
	for i := range words {
		wlen, err := cur.uint32()
		if err != nil {
			return nil, err
		}
		wb, err := cur.bytes(int(wlen))
		if err != nil {
			return nil, err
		}
		words[i] = string(wb)
		counts[i], err = cur.uint64()
		if err != nil {
			return nil, err
		}
	}
	if err := cur.done(); err != nil {
		return nil, err
	}
	v, err := vocab.Restore(words, counts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	return v, nil
}

// encodeTables lays out all K tables back to back: a u32 order count, then
// per table a u32 context count followed by each context's record. A context
// record is u16 context width, the context ids, a u32 candidate count and
// (u32 id, u64 count) pairs in ascending id order. Table iteration order is
// deterministic, so equal models produce equal bytes.
func encodeTables(m *ngram.Model) ([]byte, error) {
	var buf bytes.Buffer
	writeUint32(&buf, uint32(m.Order()))
	for _, t := range m.Tables() {
		writeUint32(&buf, uint32(t.Contexts()))
		err := t.ForEach(func(ctx []vocab.ID, d *ngram.Dist) error {
			if len(ctx) > math.MaxUint16 {
				return fmt.Errorf("slm: context of %d ids too wide to encode", len(ctx))
			}
			writeUint16(&buf, uint16(len(ctx)))
			for _, id := range ctx {
				writeUint32(&buf, uint32(id))
			}
			ids, counts := d.Candidates()
			writeUint32(&buf, uint32(len(ids)))
			for i, id := range ids {
				writeUint32(&buf, uint32(id))
				writeUint64(&buf, counts[i])
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeTables(data []byte) ([]*ngram.Table, error) {
	cur := cursor{data: data}
	order, err := cur.uint32()
	if err != nil {
		return nil, err
	}
	if order == 0 || order > 16 {
		return nil, fmt.Errorf("%w: implausible model order %d", ErrCorruptModel, order)
	}
	tables := make([]*ngram.Table, order)
	for n := 1; n <= int(order); n++ {
		t := ngram.NewTable(n)
		contexts, err := cur.uint32()
		if err != nil {
			return nil, err
		}
		for c := uint32(0); c < contexts; c++ {
			width, err := cur.uint16()
			if err != nil {
				return nil, err
			}
			if int(width) != n-1 {
				return nil, fmt.Errorf("%w: order-%d table has context width %d", ErrCorruptModel, n, width)
			}
			ctx := make([]vocab.ID, width)
			for i := range ctx {
				id, err := cur.uint32()
				if err != nil {
					return nil, err
				}
				ctx[i] = vocab.ID(id)
			}
			cands, err := cur.uint32()
			if err != nil {
				return nil, err
			}
			if cands == 0 {
				return nil, fmt.Errorf("%w: empty distribution in order-%d table", ErrCorruptModel, n)
			}
			for i := uint32(0); i < cands; i++ {
				id, err := cur.uint32()
				if err != nil {
					return nil, err
				}
				count, err := cur.uint64()
				if err != nil {
					return nil, err
				}
				if count == 0 {
					return nil, fmt.Errorf("%w: zero count in order-%d table", ErrCorruptModel, n)
				}
				t.Record(ctx, vocab.ID(id), count)
			}
		}
		tables[n-1] = t
	}
	if err := cur.done(); err != nil {
		return nil, err
	}
	return tables, nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// cursor is a bounds-checked little-endian reader over a payload slice.
type cursor struct {
	data []byte
	off  int
}

func (c *cursor) bytes(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.data) || c.off+n < c.off {
		return nil, fmt.Errorf("%w: truncated payload at offset %d", ErrCorruptModel, c.off)
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) uint16() (uint16, error) {
	b, err := c.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *cursor) uint32() (uint32, error) {
	b, err := c.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *cursor) uint64() (uint64, error) {
	b, err := c.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (c *cursor) done() error {
	if c.off != len(c.data) {
		return fmt.Errorf("%w: %d trailing bytes in payload", ErrCorruptModel, len(c.data)-c.off)
	}
	return nil
}
