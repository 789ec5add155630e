// ABOUTME: Seed helper writing the sample workbook document
// ABOUTME: Used by cellchat init and by tests that need a populated workbook

package workbook

// Seed writes a small sample sales workbook to path, replacing any existing
// document. The sheet carries a header row, six product rows, and a revenue
// column computed by formulas with cached values.
func Seed(path string) error {
	sheet := &Sheet{
		Name:  "Sales",
		Range: "A1:D7",
		Cells: map[string]Cell{
			"A1": {Type: TypeString, Value: "Product"},
			"B1": {Type: TypeString, Value: "Units"},
			"C1": {Type: TypeString, Value: "Price"},
			"D1": {Type: TypeString, Value: "Revenue"},

			"A2": {Type: TypeString, Value: "Widget"},
			"B2": {Type: TypeNumber, Value: 120.0},
			"C2": {Type: TypeNumber, Value: 9.5},
			"D2": {Type: TypeNumber, Value: 1140.0, Formula: "=B2*C2"},

			"A3": {Type: TypeString, Value: "Gadget"},
			"B3": {Type: TypeNumber, Value: 80.0},
			"C3": {Type: TypeNumber, Value: 14.25},
			"D3": {Type: TypeNumber, Value: 1140.0, Formula: "=B3*C3"},

			"A4": {Type: TypeString, Value: "Sprocket"},
			"B4": {Type: TypeNumber, Value: 45.0},
			"C4": {Type: TypeNumber, Value: 22.0},
			"D4": {Type: TypeNumber, Value: 990.0, Formula: "=B4*C4"},

			"A5": {Type: TypeString, Value: "Flange"},
			"B5": {Type: TypeNumber, Value: 200.0},
			"C5": {Type: TypeNumber, Value: 3.75},
			"D5": {Type: TypeNumber, Value: 750.0, Formula: "=B5*C5"},

			"A6": {Type: TypeString, Value: "Gizmo"},
			"B6": {Type: TypeNumber, Value: 15.0},
			"C6": {Type: TypeNumber, Value: 199.0},
			"D6": {Type: TypeNumber, Value: 2985.0, Formula: "=B6*C6"},

			"A7": {Type: TypeString, Value: "Doohickey"},
			"B7": {Type: TypeNumber, Value: 60.0},
			"C7": {Type: TypeNumber, Value: 7.0},
			"D7": {Type: TypeNumber, Value: 420.0, Formula: "=B7*C7"},
		},
	}

	return SaveDocument(path, &Document{Sheets: []*Sheet{sheet}})
}
