// ABOUTME: A1-style cell and range reference codec
// ABOUTME: Converts between "B12"/"A1:D6" strings and column/row coordinates

package workbook

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a normalized inclusive rectangle of 1-based coordinates.
type Rect struct {
	MinCol, MinRow int
	MaxCol, MaxRow int
}

// String renders the rectangle back in A1 notation, collapsing a
// single-cell rectangle to a bare cell reference.
func (r Rect) String() string {
	if r.MinCol == r.MaxCol && r.MinRow == r.MaxRow {
		return CellName(r.MinCol, r.MinRow)
	}
	return CellName(r.MinCol, r.MinRow) + ":" + CellName(r.MaxCol, r.MaxRow)
}

// Contains reports whether the cell at (col, row) falls inside the rectangle.
func (r Rect) Contains(col, row int) bool {
	return col >= r.MinCol && col <= r.MaxCol && row >= r.MinRow && row <= r.MaxRow
}

// Union grows the rectangle to include the cell at (col, row).
func (r Rect) Union(col, row int) Rect {
	if col < r.MinCol {
		r.MinCol = col
	}
	if col > r.MaxCol {
		r.MaxCol = col
	}
	if row < r.MinRow {
		r.MinRow = row
	}
	if row > r.MaxRow {
		r.MaxRow = row
	}
	return r
}

// ParseCell parses an A1-style cell reference like "B12" into 1-based
// column and row numbers.
func ParseCell(ref string) (col, row int, err error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A') + 1
		i++
	}
	if i == 0 || i == len(ref) {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	row, err = strconv.Atoi(ref[i:])
	if err != nil || row < 1 {
		return 0, 0, fmt.Errorf("invalid cell reference %q", ref)
	}
	return col, row, nil
}

// CellName converts 1-based column and row numbers to an A1-style reference.
func CellName(col, row int) string {
	var letters []byte
	for col > 0 {
		col--
		letters = append([]byte{byte('A' + col%26)}, letters...)
		col /= 26
	}
	return fmt.Sprintf("%s%d", letters, row)
}

// ParseRange parses "A1:B2" or a bare cell "A1" into a normalized Rect.
// Reversed bounds like "B2:A1" are accepted and normalized.
func ParseRange(ref string) (Rect, error) {
	first, second, found := strings.Cut(ref, ":")
	c1, r1, err := ParseCell(first)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	if !found {
		return Rect{MinCol: c1, MinRow: r1, MaxCol: c1, MaxRow: r1}, nil
	}
	c2, r2, err := ParseCell(second)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	if c2 < c1 {
		c1, c2 = c2, c1
	}
	if r2 < r1 {
		r1, r2 = r2, r1
	}
	return Rect{MinCol: c1, MinRow: r1, MaxCol: c2, MaxRow: r2}, nil
}
