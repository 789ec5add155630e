// Package workbook implements the tabular dataset engine behind cellchat's
// data tools.
//
// A workbook is a JSON document holding an ordered list of sheets; each
// sheet is a sparse map of A1-style addresses to typed cells (string,
// number, bool, date) plus a used range. The used range is the minimal
// bounding rectangle of populated cells and only ever grows: removing a
// cell never shrinks it.
//
// The Engine opens the document fresh for every operation and writes
// serialize the whole document back through a temp-file rename. There is
// no cross-call cache, lock, or version check, so concurrent writers are
// last-writer-wins at document granularity.
//
// Formulas are stored as raw text alongside a cached value and are never
// evaluated.
package workbook
