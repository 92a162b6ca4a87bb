package slm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenReaderAtRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.slm")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}

	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteSection(SectionModelMeta, 1, []byte("model-meta")); err != nil {
		t.Fatalf("write model meta: %v", err)
	}
	if err := w.WriteSection(SectionTables, 1, []byte{1, 2, 3, 4, 5, 6}); err != nil {
		t.Fatalf("write tables: %v", err)
	}
	if err := w.Finalise(); err != nil {
		t.Fatalf("finalise: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close writer file: %v", err)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	defer func() { _ = rf.Close() }()

	st, err := rf.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	mf, err := OpenReaderAt(rf, st.Size())
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() {
		if cerr := mf.Close(); cerr != nil {
			t.Fatalf("close slm file: %v", cerr)
		}
	}()

	if mf.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if mf.Header == nil {
		t.Fatalf("missing header")
	}
	if mf.Header.HeaderSize != slmHeaderSize {
		t.Fatalf("header size mismatch: got %d want %d", mf.Header.HeaderSize, slmHeaderSize)
	}
	if mf.Header.SectionCount != 2 {
		t.Fatalf("section count mismatch: got %d want 2", mf.Header.SectionCount)
	}

	metaSec := mf.Section(SectionModelMeta)
	if metaSec == nil {
		t.Fatalf("missing model meta section")
	}
	got := mf.SectionData(metaSec)
	if !bytes.Equal(got, []byte("model-meta")) {
		t.Fatalf("model meta mismatch: got %q", string(got))
	}
}

func TestWriterRejectsDuplicateSection(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.slm")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer func() { _ = f.Close() }()

	w, err := NewWriter(f)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteSection(SectionVocab, 1, []byte("a")); err != nil {
		t.Fatalf("write vocab: %v", err)
	}
	if err := w.WriteSection(SectionVocab, 1, []byte("b")); err == nil {
		t.Fatalf("expected duplicate section error")
	}
}

func TestOpenRejectsCorruptFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	valid := func(t *testing.T) []byte {
		path := filepath.Join(dir, "valid.slm")
		f, err := os.Create(path)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		w, err := NewWriter(f)
		if err != nil {
			t.Fatalf("new writer: %v", err)
		}
		if err := w.WriteSection(SectionModelMeta, 1, []byte("meta")); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := w.Finalise(); err != nil {
			t.Fatalf("finalise: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		return data
	}(t)

	write := func(t *testing.T, name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	t.Run("bad magic", func(t *testing.T) {
		data := bytes.Clone(valid)
		data[0] = 'X'
		if _, err := Open(write(t, "magic.slm", data)); err != ErrInvalidMagic {
			t.Fatalf("got %v, want ErrInvalidMagic", err)
		}
	})

	t.Run("future major", func(t *testing.T) {
		data := bytes.Clone(valid)
		data[4] = 0xFF
		if _, err := Open(write(t, "major.slm", data)); err != ErrUnsupportedMajor {
			t.Fatalf("got %v, want ErrUnsupportedMajor", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data := bytes.Clone(valid)
		if _, err := Open(write(t, "trunc.slm", data[:len(data)-4])); err == nil {
			t.Fatalf("expected error for truncated file")
		}
	})

	t.Run("too short for header", func(t *testing.T) {
		if _, err := Open(write(t, "short.slm", []byte("SLM"))); err != ErrCorruptModel {
			t.Fatalf("got %v, want ErrCorruptModel", err)
		}
	})
}

func TestHeaderAndSectionEncodingLittleEndian(t *testing.T) {
	t.Parallel()

	h := Header{
		Magic:            [4]byte{'S', 'L', 'M', 0},
		Major:            0x1122,
		Minor:            0x3344,
		HeaderSize:       slmHeaderSize,
		SectionCount:     7,
		SectionDirOffset: 0x0102030405060708,
		FileSize:         0x1112131415161718,
		Flags:            0x2122232425262728,
	}
	var hdrRaw [slmHeaderSize]byte
	if !encodeHeader(hdrRaw[:], h) {
		t.Fatalf("encode header failed")
	}
	if hdrRaw[4] != 0x22 || hdrRaw[5] != 0x11 {
		t.Fatalf("major is not little-endian: %x", hdrRaw[4:6])
	}
	if hdrRaw[16] != 0x08 || hdrRaw[23] != 0x01 {
		t.Fatalf("section dir offset is not little-endian: %x", hdrRaw[16:24])
	}
	decodedH, ok := decodeHeader(hdrRaw[:])
	if !ok {
		t.Fatalf("decode header failed")
	}
	if decodedH != h {
		t.Fatalf("header round-trip mismatch: got %+v want %+v", decodedH, h)
	}

	s := Section{
		Type:    0x11223344,
		Version: 0x55667788,
		Offset:  0x0102030405060708,
		Size:    0x1112131415161718,
	}
	var secRaw [slmSectionSize]byte
	if !encodeSection(secRaw[:], s) {
		t.Fatalf("encode section failed")
	}
	if secRaw[0] != 0x44 || secRaw[3] != 0x11 {
		t.Fatalf("section type is not little-endian: %x", secRaw[0:4])
	}
	if secRaw[8] != 0x08 || secRaw[15] != 0x01 {
		t.Fatalf("section offset is not little-endian: %x", secRaw[8:16])
	}
	decodedS, ok := decodeSection(secRaw[:])
	if !ok {
		t.Fatalf("decode section failed")
	}
	if decodedS != s {
		t.Fatalf("section round-trip mismatch: got %+v want %+v", decodedS, s)
	}
}
