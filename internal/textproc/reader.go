// Package textproc turns raw documents into clean, quality-filtered
// sentences ready for tokenization. It handles encoding detection, control
// character stripping, sentence segmentation and the quality filter that
// keeps OCR noise, headers and page furniture out of the training stream.
package textproc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Source supplies one raw document to the training pipeline.
type Source interface {
	// Name identifies the document in diagnostics and stats.
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource returns a Source backed by a file on disk. Plain text and PDF
// files are supported; the format is chosen by file extension.
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Open() (io.ReadCloser, error) {
	return os.Open(s.path)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an in-memory document, as delivered by
// an upload or an API request.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Read loads one document, detects its encoding and returns the cleaned
// character stream. PDF documents are converted to plain text first. Errors
// are per-document; callers skip the document and continue.
func Read(src Source) (string, error) {
	rc, err := src.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", src.Name(), err)
	}
	defer func() { _ = rc.Close() }()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src.Name(), err)
	}

	var text string
	if strings.EqualFold(filepath.Ext(src.Name()), ".pdf") {
		text, err = extractPDF(raw)
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", src.Name(), err)
		}
	} else {
		text = DecodeText(raw)
	}
	return Clean(text), nil
}

// DecodeText interprets raw bytes as UTF-8, falling back to Latin-1 when the
// data is not valid UTF-8.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		b.WriteRune(rune(c))
	}
	return b.String()
}

func extractPDF(raw []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no extractable text found in pdf")
	}
	return b.String(), nil
}

// Clean strips control characters and stray symbols, collapses whitespace,
// removes spaces before punctuation and normalizes repeated punctuation.
func Clean(text string) string {
	buf := make([]byte, 0, len(text))

	var (
		lastPunct rune
		punctRun  int
	)
	hasTrailingSpace := func() bool {
		return len(buf) > 0 && buf[len(buf)-1] == ' '
	}
	writeSpace := func() {
		if len(buf) > 0 && !hasTrailingSpace() {
			buf = append(buf, ' ')
		}
	}
	flushPunct := func() {
		if punctRun == 0 {
			return
		}
		// Punctuation attaches to the preceding word.
		if hasTrailingSpace() {
			buf = buf[:len(buf)-1]
		}
		if lastPunct == '.' && punctRun >= 3 {
			buf = append(buf, "..."...)
		} else {
			buf = utf8.AppendRune(buf, lastPunct)
		}
		punctRun = 0
	}
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if punctRun > 0 && r != lastPunct {
				flushPunct()
			}
			lastPunct = r
			punctRun++
		case unicode.IsSpace(r) || unicode.IsControl(r):
			flushPunct()
			writeSpace()
		case unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(`;:,'"()-`, r):
			flushPunct()
			if (r == ',' || r == ';' || r == ':') && hasTrailingSpace() {
				buf = buf[:len(buf)-1]
			}
			buf = utf8.AppendRune(buf, r)
		default:
			// Symbol noise becomes a separator.
			flushPunct()
			writeSpace()
		}
	}
	flushPunct()
	return strings.TrimSpace(string(buf))
}
