package slm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inkhorn/inkhorn/internal/ngram"
)

// Save writes a trained model to path. The file is written to a temporary
// sibling and renamed into place so readers never observe a half-written
// model.
func Save(m *ngram.Model, path string) error {
	if m == nil {
		return errors.New("slm: nil model")
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("slm: refusing to save invalid model: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".slm-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if err := writeModel(tmp, m); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func writeModel(f *os.File, m *ngram.Model) error {
	w, err := NewWriter(f)
	if err != nil {
		return err
	}

	meta, err := encodeMeta(m.Meta)
	if err != nil {
		return err
	}
	if err := w.WriteSection(SectionModelMeta, metaPayloadVersion, meta); err != nil {
		return err
	}
	if err := w.WriteSection(SectionVocab, vocabPayloadVersion, encodeVocab(m.Vocab)); err != nil {
		return err
	}
	tables, err := encodeTables(m)
	if err != nil {
		return err
	}
	if err := w.WriteSection(SectionTables, tablesPayloadVersion, tables); err != nil {
		return err
	}
	return w.Finalise()
}

// Load reads a model from path and validates it fully before returning.
// A structurally broken file yields an error wrapping ErrCorruptModel; the
// caller keeps whatever model it already had.
func Load(path string) (*ngram.Model, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return decodeModel(f)
}

func decodeModel(f *File) (*ngram.Model, error) {
	metaSec := f.Section(SectionModelMeta)
	vocabSec := f.Section(SectionVocab)
	tablesSec := f.Section(SectionTables)
	if metaSec == nil || vocabSec == nil || tablesSec == nil {
		return nil, fmt.Errorf("%w: missing required section", ErrCorruptModel)
	}

	meta, err := decodeMeta(f.SectionData(metaSec))
	if err != nil {
		return nil, err
	}
	v, err := decodeVocab(f.SectionData(vocabSec))
	if err != nil {
		return nil, err
	}
	tables, err := decodeTables(f.SectionData(tablesSec))
	if err != nil {
		return nil, err
	}

	m, err := ngram.Restore(meta, v, tables)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}
	return m, nil
}
