// ABOUTME: Tool definitions with strict JSON schemas offered to the model
// ABOUTME: Descriptions carry the confirm-before-update protocol hint; only the flag check is enforced

package tools

import (
	"encoding/json"

	"github.com/cellchat/cellchat/internal/llm"
)

// Tool names. The set is closed: dispatch in Execute is exhaustive over
// these and nothing else.
const (
	NameConfirmAction    = "confirm_action"
	NameRangeRead        = "range_read"
	NameCellUpdate       = "cell_update"
	NameOpenTablePreview = "open_table_preview"
	NameHighlightCells   = "highlight_cells"
	NameExplainFormula   = "explain_formula"
)

// Definitions returns the full tool set in the order it is offered to the
// model. All schemas are strict: no undeclared fields are accepted.
func (r *Registry) Definitions() []llm.Tool {
	return []llm.Tool{
		{
			Name: NameConfirmAction,
			Description: "Ask the user to confirm a pending action before it runs. " +
				"Call this before cell_update so the user can approve the change. " +
				"The turn pauses until the user confirms or cancels.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Short prompt title"},
					"description": {"type": "string", "description": "What will happen if confirmed"},
					"action_id": {"type": "string", "description": "Identifier echoed back on resolution"},
					"confirm_label": {"type": "string", "description": "Label for the confirm button"},
					"cancel_label": {"type": "string", "description": "Label for the cancel button"}
				},
				"additionalProperties": false
			}`),
		},
		{
			Name: NameRangeRead,
			Description: "Read a rectangular range of cells from the workbook. " +
				"Returns a dense row-major grid; empty cells are null.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"sheet": {"type": "string", "description": "Sheet name; defaults to the first sheet"},
					"range": {"type": "string", "description": "A1-style range, e.g. \"A1:D6\" or \"B3\""}
				},
				"required": ["range"],
				"additionalProperties": false
			}`),
		},
		{
			Name: NameCellUpdate,
			Description: "Write a single cell in the workbook. This MUTATES the document: " +
				"call confirm_action first and only pass confirmed=true after the user approves. " +
				"A null value clears the cell.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"sheet": {"type": "string", "description": "Sheet name; defaults to the first sheet"},
					"cell": {"type": "string", "description": "A1-style cell reference, e.g. \"B3\""},
					"value": {
						"type": ["string", "number", "boolean", "null"],
						"description": "New cell value; null removes the cell"
					},
					"confirmed": {"type": "boolean", "description": "Must be true for the write to execute"}
				},
				"required": ["cell", "value"],
				"additionalProperties": false
			}`),
		},
		{
			Name: NameOpenTablePreview,
			Description: "Show the user a read-only table preview. Purely visual; " +
				"has no effect on the workbook.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {"type": "string", "description": "Preview title"},
					"columns": {
						"type": "array",
						"items": {"type": "string"},
						"description": "Column headers"
					},
					"rows": {
						"type": "array",
						"items": {"type": "array"},
						"description": "Row data matching the columns"
					}
				},
				"required": ["columns", "rows"],
				"additionalProperties": false
			}`),
		},
		{
			Name: NameHighlightCells,
			Description: "Highlight cells in the user's view of the workbook. " +
				"Purely visual; has no effect on stored data.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"sheet": {"type": "string", "description": "Sheet name; defaults to the first sheet"},
					"highlights": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"row": {"type": "integer"},
								"col": {"type": "integer"},
								"color": {"type": "string"}
							},
							"required": ["row", "col"],
							"additionalProperties": false
						},
						"description": "Cells to highlight, 1-based row and column"
					}
				},
				"required": ["highlights"],
				"additionalProperties": false
			}`),
		},
		{
			Name: NameExplainFormula,
			Description: "Report the raw formula stored in a cell, if any. " +
				"Formulas are never evaluated.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"sheet": {"type": "string", "description": "Sheet name; defaults to the first sheet"},
					"cell": {"type": "string", "description": "A1-style cell reference"}
				},
				"required": ["cell"],
				"additionalProperties": false
			}`),
		},
	}
}
