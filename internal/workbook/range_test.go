package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	tests := []struct {
		ref string
		col int
		row int
	}{
		{"A1", 1, 1},
		{"B12", 2, 12},
		{"Z1", 26, 1},
		{"AA1", 27, 1},
		{"AB10", 28, 10},
		{"b3", 2, 3}, // lowercase accepted
	}

	for _, tt := range tests {
		col, row, err := ParseCell(tt.ref)
		require.NoError(t, err, "ref %q", tt.ref)
		assert.Equal(t, tt.col, col, "ref %q column", tt.ref)
		assert.Equal(t, tt.row, row, "ref %q row", tt.ref)
	}
}

func TestParseCell_Invalid(t *testing.T) {
	for _, ref := range []string{"", "A", "12", "A0", "A-1", "1A"} {
		_, _, err := ParseCell(ref)
		assert.Error(t, err, "ref %q should fail", ref)
	}
}

func TestCellName_RoundTrip(t *testing.T) {
	for _, ref := range []string{"A1", "B12", "Z99", "AA1", "AZ7", "BA3"} {
		col, row, err := ParseCell(ref)
		require.NoError(t, err)
		assert.Equal(t, ref, CellName(col, row))
	}
}

func TestParseRange(t *testing.T) {
	rect, err := ParseRange("A1:B2")
	require.NoError(t, err)
	assert.Equal(t, Rect{MinCol: 1, MinRow: 1, MaxCol: 2, MaxRow: 2}, rect)
}

func TestParseRange_BareCell(t *testing.T) {
	rect, err := ParseRange("C3")
	require.NoError(t, err)
	assert.Equal(t, Rect{MinCol: 3, MinRow: 3, MaxCol: 3, MaxRow: 3}, rect)
	assert.Equal(t, "C3", rect.String())
}

func TestParseRange_ReversedBounds(t *testing.T) {
	rect, err := ParseRange("D6:A1")
	require.NoError(t, err)
	assert.Equal(t, Rect{MinCol: 1, MinRow: 1, MaxCol: 4, MaxRow: 6}, rect)
	assert.Equal(t, "A1:D6", rect.String())
}

func TestParseRange_Invalid(t *testing.T) {
	for _, ref := range []string{"", ":", "A1:", ":B2", "A1:B2:C3", "1:2"} {
		_, err := ParseRange(ref)
		assert.Error(t, err, "ref %q should fail", ref)
	}
}

func TestRect_Union(t *testing.T) {
	rect := Rect{MinCol: 2, MinRow: 2, MaxCol: 3, MaxRow: 3}

	grown := rect.Union(5, 1)
	assert.Equal(t, Rect{MinCol: 2, MinRow: 1, MaxCol: 5, MaxRow: 3}, grown)

	// Interior cells leave the rectangle unchanged
	assert.Equal(t, rect, rect.Union(2, 3))
}
