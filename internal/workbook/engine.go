// ABOUTME: Workbook engine exposing range reads, typed cell writes, and formula inspection
// ABOUTME: Opens the backing JSON document per call; writes serialize the whole document back

package workbook

import (
	"fmt"
	"log/slog"
	"time"
)

// RangeData is a dense, row-major snapshot of a rectangular region.
// Cells with no stored value are nil.
type RangeData struct {
	Sheet string  `json:"sheet"`
	Range string  `json:"range"`
	Rows  [][]any `json:"rows"`
}

// WriteResult reports a completed cell write.
type WriteResult struct {
	Sheet    string `json:"sheet"`
	Cell     string `json:"cell"`
	Previous any    `json:"previous"`
	Updated  any    `json:"updated"`
}

// FormulaInfo describes the formula state of a single cell.
// Formula is nil when the cell holds no formula.
type FormulaInfo struct {
	Sheet       string  `json:"sheet"`
	Cell        string  `json:"cell"`
	Formula     *string `json:"formula"`
	Explanation string  `json:"explanation"`
}

// Engine performs all dataset operations against one workbook document.
// Every operation loads the document fresh and writes serialize it back
// whole, so concurrent writers are last-writer-wins.
type Engine struct {
	path   string
	logger *slog.Logger
}

// NewEngine creates an engine over the workbook document at path.
// The document is not opened until the first operation.
func NewEngine(path string, logger *slog.Logger) *Engine {
	return &Engine{
		path:   path,
		logger: logger.With("component", "workbook"),
	}
}

// ReadRange returns the cells inside an A1-style range as a dense grid.
// An empty sheet name selects the first sheet.
func (e *Engine) ReadRange(rangeRef, sheetName string) (*RangeData, error) {
	rect, err := ParseRange(rangeRef)
	if err != nil {
		return nil, err
	}

	doc, err := LoadDocument(e.path)
	if err != nil {
		return nil, err
	}
	sheet, err := doc.Sheet(sheetName)
	if err != nil {
		return nil, err
	}

	rows := make([][]any, 0, rect.MaxRow-rect.MinRow+1)
	for r := rect.MinRow; r <= rect.MaxRow; r++ {
		row := make([]any, 0, rect.MaxCol-rect.MinCol+1)
		for c := rect.MinCol; c <= rect.MaxCol; c++ {
			if cell, ok := sheet.Cells[CellName(c, r)]; ok {
				row = append(row, cell.Normalized())
			} else {
				row = append(row, nil)
			}
		}
		rows = append(rows, row)
	}

	e.logger.Debug("range read", "sheet", sheet.Name, "range", rect.String())

	return &RangeData{Sheet: sheet.Name, Range: rect.String(), Rows: rows}, nil
}

// WriteCell stores a typed value into a single cell and persists the whole
// document. A nil value removes the cell. The used range only ever grows;
// removals never shrink it.
func (e *Engine) WriteCell(cellRef string, value any, sheetName string) (*WriteResult, error) {
	col, row, err := ParseCell(cellRef)
	if err != nil {
		return nil, err
	}

	doc, err := LoadDocument(e.path)
	if err != nil {
		return nil, err
	}
	sheet, err := doc.Sheet(sheetName)
	if err != nil {
		return nil, err
	}

	addr := CellName(col, row)

	var previous any
	if prior, ok := sheet.Cells[addr]; ok {
		previous = prior.Normalized()
	}

	if value == nil {
		delete(sheet.Cells, addr)
	} else {
		cell, err := typedCell(value)
		if err != nil {
			return nil, err
		}
		sheet.Cells[addr] = cell
		growUsedRange(sheet, col, row)
	}

	if err := SaveDocument(e.path, doc); err != nil {
		return nil, err
	}

	e.logger.Info("cell written", "sheet", sheet.Name, "cell", addr)

	result := &WriteResult{Sheet: sheet.Name, Cell: addr, Previous: previous}
	if value != nil {
		result.Updated = sheet.Cells[addr].Normalized()
	}
	return result, nil
}

// ExplainFormula reports the raw formula text of a cell, if any.
// Formulas are never evaluated or parsed.
func (e *Engine) ExplainFormula(cellRef, sheetName string) (*FormulaInfo, error) {
	col, row, err := ParseCell(cellRef)
	if err != nil {
		return nil, err
	}

	doc, err := LoadDocument(e.path)
	if err != nil {
		return nil, err
	}
	sheet, err := doc.Sheet(sheetName)
	if err != nil {
		return nil, err
	}

	addr := CellName(col, row)
	info := &FormulaInfo{Sheet: sheet.Name, Cell: addr}

	if cell, ok := sheet.Cells[addr]; ok && cell.Formula != "" {
		f := cell.Formula
		info.Formula = &f
		info.Explanation = fmt.Sprintf("Cell %s on sheet %q contains the formula %s.", addr, sheet.Name, f)
	} else {
		info.Explanation = fmt.Sprintf("Cell %s on sheet %q does not contain a formula.", addr, sheet.Name)
	}

	return info, nil
}

// typedCell converts an external value into a typed cell.
func typedCell(value any) (Cell, error) {
	switch v := value.(type) {
	case string:
		return Cell{Type: TypeString, Value: v}, nil
	case float64:
		return Cell{Type: TypeNumber, Value: v}, nil
	case int:
		return Cell{Type: TypeNumber, Value: float64(v)}, nil
	case int64:
		return Cell{Type: TypeNumber, Value: float64(v)}, nil
	case bool:
		return Cell{Type: TypeBool, Value: v}, nil
	case time.Time:
		return Cell{Type: TypeDate, Value: v.UTC().Format(time.RFC3339)}, nil
	default:
		return Cell{}, fmt.Errorf("unsupported cell value type %T", value)
	}
}

// growUsedRange extends the sheet's used range to include (col, row).
func growUsedRange(sheet *Sheet, col, row int) {
	if sheet.Range == "" {
		sheet.Range = Rect{MinCol: col, MinRow: row, MaxCol: col, MaxRow: row}.String()
		return
	}
	rect, err := ParseRange(sheet.Range)
	if err != nil {
		// A corrupt stored range resets to the written cell.
		sheet.Range = Rect{MinCol: col, MinRow: row, MaxCol: col, MaxRow: row}.String()
		return
	}
	sheet.Range = rect.Union(col, row).String()
}
