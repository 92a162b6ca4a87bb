package textproc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDecodeTextUTF8(t *testing.T) {
	t.Parallel()
	in := []byte("Der Bär läuft schnell.")
	if got := DecodeText(in); got != "Der Bär läuft schnell." {
		t.Fatalf("utf-8 decode mismatch: %q", got)
	}
}

func TestDecodeTextLatin1Fallback(t *testing.T) {
	t.Parallel()
	// "café" in Latin-1: 0xE9 is not valid UTF-8.
	in := []byte{'c', 'a', 'f', 0xE9}
	if got := DecodeText(in); got != "café" {
		t.Fatalf("latin-1 fallback mismatch: %q", got)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapse whitespace", "one\t\ttwo\n\nthree", "one two three"},
		{"strip control chars", "be\x00fore\x07 after", "be fore after"},
		{"space before punctuation removed", "wait , what ?", "wait, what?"},
		{"repeated punctuation collapsed", "No!! Really?? Stop!!!", "No! Really? Stop!"},
		{"ellipsis preserved", "Well..... maybe", "Well... maybe"},
		{"symbol noise separated", "price*is@right", "price is right"},
		{"decimal kept", "exactly 3.14 bar", "exactly 3.14 bar"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestReadFileSource(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("A  quiet\nvillage.   Nothing  happened."), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(FileSource(path))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "A quiet village. Nothing happened." {
		t.Fatalf("cleaned text mismatch: %q", got)
	}
}

func TestReadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Read(FileSource(filepath.Join(t.TempDir(), "absent.txt")))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestReadBytesSource(t *testing.T) {
	t.Parallel()
	got, err := Read(BytesSource("upload.txt", []byte("Short   and clean.")))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got != "Short and clean." {
		t.Fatalf("cleaned text mismatch: %q", got)
	}
}

func TestReadFailingSource(t *testing.T) {
	t.Parallel()
	_, err := Read(errSource{})
	if err == nil {
		t.Fatal("expected error from failing source")
	}
}

type errSource struct{}

func (errSource) Name() string { return "broken" }

func (errSource) Open() (io.ReadCloser, error) {
	return nil, errors.New("boom")
}
