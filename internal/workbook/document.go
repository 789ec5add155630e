// ABOUTME: Workbook document model and JSON (de)serialization
// ABOUTME: A workbook is an ordered list of sheets holding sparse typed cells

package workbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrDocumentNotFound is returned when the backing workbook document does not exist
var ErrDocumentNotFound = errors.New("workbook document not found")

// ErrSheetNotFound is returned when a named sheet does not exist in the workbook
var ErrSheetNotFound = errors.New("sheet not found")

// Cell type tags. A stored cell is exactly one of these.
const (
	TypeString = "s"
	TypeNumber = "n"
	TypeBool   = "b"
	TypeDate   = "d"
)

// Cell is a typed cell value, optionally carrying a formula.
// For TypeDate the value is the ISO-8601 string form.
type Cell struct {
	Type    string `json:"t"`
	Value   any    `json:"v"`
	Formula string `json:"f,omitempty"`
}

// Normalized returns the cell's value in its external form: string, float64,
// bool, or the ISO-8601 string for date cells.
func (c Cell) Normalized() any {
	switch c.Type {
	case TypeNumber:
		// JSON numbers decode as float64; integers written in-process may
		// arrive as other numeric types.
		switch v := c.Value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
		return c.Value
	case TypeDate:
		if s, ok := c.Value.(string); ok {
			return s
		}
		if t, ok := c.Value.(time.Time); ok {
			return t.UTC().Format(time.RFC3339)
		}
		return c.Value
	default:
		return c.Value
	}
}

// Sheet is a sparse mapping of A1-style addresses to cells plus the used
// range, the minimal bounding rectangle of all populated cells.
type Sheet struct {
	Name  string          `json:"name"`
	Cells map[string]Cell `json:"cells"`
	Range string          `json:"range,omitempty"`
}

// Document is a whole workbook. Sheet order is significant: the first sheet
// is the default for operations that don't name one.
type Document struct {
	Sheets []*Sheet `json:"sheets"`
}

// Sheet resolves a sheet by name. An empty name resolves to the first sheet.
func (d *Document) Sheet(name string) (*Sheet, error) {
	if len(d.Sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if name == "" {
		return d.Sheets[0], nil
	}
	for _, s := range d.Sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// LoadDocument reads a workbook document from disk.
// Returns ErrDocumentNotFound (naming the expected path) if the file is missing.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: expected at %s", ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("reading workbook: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing workbook: %w", err)
	}

	for _, s := range doc.Sheets {
		if s.Cells == nil {
			s.Cells = make(map[string]Cell)
		}
	}

	return &doc, nil
}

// SaveDocument serializes the whole workbook back to disk, replacing prior
// contents. The write goes through a temp file plus rename so readers never
// observe a torn document; there is no lock or version check, so concurrent
// writers race at whole-document granularity.
func SaveDocument(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing workbook: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".workbook-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing workbook: %w", err)
	}

	return nil
}
