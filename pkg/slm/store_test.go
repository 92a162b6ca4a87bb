package slm

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/inkhorn/inkhorn/internal/engine"
	"github.com/inkhorn/inkhorn/internal/ngram"
	"github.com/inkhorn/inkhorn/internal/vocab"
)

func trainedModel(t *testing.T) *ngram.Model {
	t.Helper()

	sentences := [][]string{
		{"the", "dragon", "flew", "over", "the", "mountain", "."},
		{"the", "dragon", "roared", "loudly", "."},
		{"the", "knight", "fought", "the", "dragon", "bravely", "."},
	}

	b := vocab.NewBuilder()
	for _, s := range sentences {
		b.Add(s)
	}
	v := b.Build(1)

	m := ngram.New(3, v)
	for _, s := range sentences {
		m.ObserveSentence(v.MapTokens(s))
	}
	m.Meta.MinWordCount = 1
	m.Meta.Documents = 2
	return m
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	m := trainedModel(t)
	path := filepath.Join(t.TempDir(), "model.slm")

	if err := Save(m, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !loaded.Equal(m) {
		t.Fatalf("loaded model differs from saved model")
	}
	if loaded.Meta.Documents != m.Meta.Documents {
		t.Fatalf("documents mismatch: got %d want %d", loaded.Meta.Documents, m.Meta.Documents)
	}
	if loaded.Meta.Sentences != m.Meta.Sentences {
		t.Fatalf("sentences mismatch: got %d want %d", loaded.Meta.Sentences, m.Meta.Sentences)
	}
}

func TestLoadedModelGeneratesIdentically(t *testing.T) {
	t.Parallel()

	m := trainedModel(t)
	path := filepath.Join(t.TempDir(), "model.slm")
	if err := Save(m, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	opts := engine.Options{Temperature: 0.8, Seed: 42}
	for i := 0; i < 10; i++ {
		want := engine.Generate(m, "the dragon", opts)
		got := engine.Generate(loaded, "the dragon", opts)
		if got != want {
			t.Fatalf("generation diverged: got %q want %q", got, want)
		}
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	t.Parallel()

	m := trainedModel(t)
	dir := t.TempDir()
	p1 := filepath.Join(dir, "a.slm")
	p2 := filepath.Join(dir, "b.slm")

	if err := Save(m, p1); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if err := Save(m, p2); err != nil {
		t.Fatalf("save b: %v", err)
	}

	b1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("read a: %v", err)
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatalf("read b: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("equal models serialized to different bytes")
	}
}

func TestLoadRejectsTamperedCounts(t *testing.T) {
	t.Parallel()

	m := trainedModel(t)
	path := filepath.Join(t.TempDir(), "model.slm")
	if err := Save(m, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	// Locate the tables section and zero a count byte inside it. The total
	// and per-candidate sums stop matching, which validation must catch.
	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sec := f.Section(SectionTables)
	if sec == nil {
		t.Fatalf("missing tables section")
	}
	// Last 8 bytes of the section are a candidate count.
	off := sec.End() - 8
	_ = f.Close()

	for i := off; i < off+8; i++ {
		data[i] = 0
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrCorruptModel) {
		t.Fatalf("got %v, want ErrCorruptModel", err)
	}
}

func TestLoadRejectsMissingSection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "partial.slm")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	meta, err := encodeMeta(ngram.Metadata{Order: 3})
	if err != nil {
		t.Fatalf("encode meta: %v", err)
	}
	if err := w.WriteSection(SectionModelMeta, metaPayloadVersion, meta); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Load(path); !errors.Is(err, ErrCorruptModel) {
		t.Fatalf("got %v, want ErrCorruptModel", err)
	}
}

func TestSaveRefusesNilModel(t *testing.T) {
	t.Parallel()

	if err := Save(nil, filepath.Join(t.TempDir(), "nil.slm")); err == nil {
		t.Fatalf("expected error for nil model")
	}
}
