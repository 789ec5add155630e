// ABOUTME: Tool registry executing the closed tool set against the workbook engine
// ABOUTME: Contains tool failures as structured error payloads and gates cell_update on the confirmed flag

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cellchat/cellchat/internal/workbook"
)

// Status values carried in every tool result payload
const (
	StatusOK                = "ok"
	StatusError             = "error"
	StatusNeedsConfirmation = "needs_confirmation"
)

// Registry executes tool calls. Execution never returns a Go error for
// tool-internal failures: malformed arguments, unknown sheets, missing
// documents and the like all come back as {"status":"error",...} payloads
// so one failing tool never aborts a turn.
type Registry struct {
	engine *workbook.Engine
	logger *slog.Logger
}

// NewRegistry creates a registry over the given workbook engine.
func NewRegistry(engine *workbook.Engine, logger *slog.Logger) *Registry {
	return &Registry{
		engine: engine,
		logger: logger.With("component", "tools"),
	}
}

// Typed argument structures, one per tool. Decoding is strict: undeclared
// fields are rejected.

type confirmActionArgs struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ActionID     string `json:"action_id"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
}

type rangeReadArgs struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
}

type cellUpdateArgs struct {
	Sheet     string          `json:"sheet"`
	Cell      string          `json:"cell"`
	Value     json.RawMessage `json:"value"`
	Confirmed bool            `json:"confirmed"`
}

type highlight struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Color string `json:"color,omitempty"`
}

type highlightCellsArgs struct {
	Sheet      string      `json:"sheet"`
	Highlights []highlight `json:"highlights"`
}

type tablePreviewArgs struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type explainFormulaArgs struct {
	Sheet string `json:"sheet"`
	Cell  string `json:"cell"`
}

// Execute runs the named tool with the given JSON arguments and returns a
// structured result payload. Unknown tool names and argument decode failures
// come back as error payloads, not Go errors.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) json.RawMessage {
	r.logger.Debug("executing tool", "tool", name)

	switch name {
	case NameConfirmAction:
		var args confirmActionArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		return r.confirmAction(args)

	case NameRangeRead:
		var args rangeReadArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		return r.rangeRead(args)

	case NameCellUpdate:
		var args cellUpdateArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		return r.cellUpdate(args)

	case NameOpenTablePreview:
		var args tablePreviewArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		if args.Columns == nil || args.Rows == nil {
			return errorResult("%s requires columns and rows", name)
		}
		return okResult(map[string]any{
			"title":   args.Title,
			"columns": args.Columns,
			"rows":    args.Rows,
		})

	case NameHighlightCells:
		var args highlightCellsArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		if args.Highlights == nil {
			return errorResult("%s requires highlights", name)
		}
		return okResult(map[string]any{
			"sheet":      args.Sheet,
			"highlights": args.Highlights,
		})

	case NameExplainFormula:
		var args explainFormulaArgs
		if err := decodeArgs(argsJSON, &args); err != nil {
			return errorResult("invalid %s arguments: %v", name, err)
		}
		return r.explainFormula(args)

	default:
		return errorResult("unknown tool %q", name)
	}
}

// NeedsConfirmation reports whether a call with these arguments suspends the
// turn instead of executing: confirm_action always does, cell_update does
// unless confirmed is exactly true.
func NeedsConfirmation(name, argsJSON string) bool {
	switch name {
	case NameConfirmAction:
		return true
	case NameCellUpdate:
		var args cellUpdateArgs
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return false
		}
		return !args.Confirmed
	default:
		return false
	}
}

func (r *Registry) confirmAction(args confirmActionArgs) json.RawMessage {
	return mustJSON(map[string]any{
		"status":        StatusNeedsConfirmation,
		"action":        NameConfirmAction,
		"title":         args.Title,
		"description":   args.Description,
		"action_id":     args.ActionID,
		"confirm_label": args.ConfirmLabel,
		"cancel_label":  args.CancelLabel,
	})
}

func (r *Registry) rangeRead(args rangeReadArgs) json.RawMessage {
	if args.Range == "" {
		return errorResult("range_read requires a range")
	}
	data, err := r.engine.ReadRange(args.Range, args.Sheet)
	if err != nil {
		return errorResult("range_read failed: %v", err)
	}
	return okResult(map[string]any{
		"sheet": data.Sheet,
		"range": data.Range,
		"rows":  data.Rows,
	})
}

func (r *Registry) cellUpdate(args cellUpdateArgs) json.RawMessage {
	if args.Cell == "" {
		return errorResult("cell_update requires a cell")
	}
	if args.Value == nil {
		return errorResult("cell_update requires a value (use null to clear the cell)")
	}

	var value any
	if err := json.Unmarshal(args.Value, &value); err != nil {
		return errorResult("cell_update value is not valid JSON: %v", err)
	}
	switch value.(type) {
	case string, float64, bool, nil:
	default:
		return errorResult("cell_update value must be a string, number, boolean, or null")
	}

	// The sole enforced gate: anything other than an explicit true suspends
	// the call without touching the document.
	if !args.Confirmed {
		return mustJSON(map[string]any{
			"status":  StatusNeedsConfirmation,
			"action":  NameCellUpdate,
			"sheet":   args.Sheet,
			"cell":    args.Cell,
			"value":   value,
			"message": fmt.Sprintf("Update to cell %s requires user confirmation", args.Cell),
		})
	}

	result, err := r.engine.WriteCell(args.Cell, value, args.Sheet)
	if err != nil {
		return errorResult("cell_update failed: %v", err)
	}

	r.logger.Info("cell updated", "sheet", result.Sheet, "cell", result.Cell)

	return okResult(map[string]any{
		"sheet":    result.Sheet,
		"cell":     result.Cell,
		"previous": result.Previous,
		"updated":  result.Updated,
	})
}

func (r *Registry) explainFormula(args explainFormulaArgs) json.RawMessage {
	if args.Cell == "" {
		return errorResult("explain_formula requires a cell")
	}
	info, err := r.engine.ExplainFormula(args.Cell, args.Sheet)
	if err != nil {
		return errorResult("explain_formula failed: %v", err)
	}
	return okResult(map[string]any{
		"sheet":       info.Sheet,
		"cell":        info.Cell,
		"formula":     info.Formula,
		"explanation": info.Explanation,
	})
}

// decodeArgs strictly decodes tool arguments, rejecting undeclared fields.
// An empty argument string decodes as an empty object.
func decodeArgs(argsJSON string, dst any) error {
	if argsJSON == "" {
		argsJSON = "{}"
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(argsJSON)))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func okResult(fields map[string]any) json.RawMessage {
	fields["status"] = StatusOK
	return mustJSON(fields)
}

func errorResult(format string, args ...any) json.RawMessage {
	return mustJSON(map[string]any{
		"status":  StatusError,
		"message": fmt.Sprintf(format, args...),
	})
}

// mustJSON serializes a result payload. The payloads are built from
// marshal-safe types, so failure here is a programming error.
func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshaling tool result: %v", err))
	}
	return data
}
