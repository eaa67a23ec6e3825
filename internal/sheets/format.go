package sheets

import (
	"slices"

	gsheets "google.golang.org/api/sheets/v4"

	"github.com/jimikki-app/backend/internal/model"
)

var (
	colorBrand     = &gsheets.Color{Red: 0.31, Green: 0.27, Blue: 0.9}
	colorWhite     = &gsheets.Color{Red: 1, Green: 1, Blue: 1}
	colorTint      = &gsheets.Color{Red: 0.93, Green: 0.93, Blue: 0.98}
	colorMuted     = &gsheets.Color{Red: 0.39, Green: 0.39, Blue: 0.55}
	colorSection   = &gsheets.Color{Red: 0.18, Green: 0.16, Blue: 0.35}
	colorIncomeRow = &gsheets.Color{Red: 0.88, Green: 0.98, Blue: 0.91}
	colorSpendRow  = &gsheets.Color{Red: 1, Green: 0.93, Blue: 0.93}
	colorSwapRow   = &gsheets.Color{Red: 0.9, Green: 0.95, Blue: 1}
)

// ColumnWidths are the pixel widths of columns A to G.
var ColumnWidths = []int64{160, 140, 160, 200, 140, 130, 130}

const frozenRows = 2

func rowRange(row int) *gsheets.GridRange {
	return &gsheets.GridRange{SheetId: SheetID, StartRowIndex: int64(row), EndRowIndex: int64(row + 1)}
}

func repeatFormat(rng *gsheets.GridRange, format *gsheets.CellFormat) *gsheets.Request {
	return &gsheets.Request{
		RepeatCell: &gsheets.RepeatCellRequest{
			Range:  rng,
			Cell:   &gsheets.CellData{UserEnteredFormat: format},
			Fields: "userEnteredFormat",
		},
	}
}

// resetFormats clears every cell format on the tab, so styling from an
// earlier export does not stay on rows that have since shifted.
func resetFormats() *gsheets.Request {
	return &gsheets.Request{
		RepeatCell: &gsheets.RepeatCellRequest{
			Range:  &gsheets.GridRange{SheetId: SheetID},
			Cell:   &gsheets.CellData{},
			Fields: "userEnteredFormat",
		},
	}
}

// FormatRequests styles the grid produced by BuildLayout, starting from a
// format reset.
func FormatRequests(l *Layout) []*gsheets.Request {
	reqs := []*gsheets.Request{
		resetFormats(),
		{
			UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
				Properties: &gsheets.SheetProperties{SheetId: SheetID, TabColor: colorBrand},
				Fields:     "tabColor",
			},
		},
		repeatFormat(rowRange(titleRow), &gsheets.CellFormat{
			BackgroundColor:     colorBrand,
			TextFormat:          &gsheets.TextFormat{ForegroundColor: colorWhite, FontSize: 16, Bold: true},
			HorizontalAlignment: "CENTER",
		}),
		repeatFormat(rowRange(subtitleRow), &gsheets.CellFormat{
			BackgroundColor: colorTint,
			TextFormat:      &gsheets.TextFormat{ForegroundColor: colorMuted, FontSize: 9, Italic: true},
		}),
		repeatFormat(summaryRange(summaryLabelRow), &gsheets.CellFormat{
			BackgroundColor:     colorTint,
			TextFormat:          &gsheets.TextFormat{ForegroundColor: colorBrand, FontSize: 10, Bold: true},
			HorizontalAlignment: "CENTER",
		}),
		repeatFormat(summaryRange(summaryValueRow), &gsheets.CellFormat{
			BackgroundColor:     colorBrand,
			TextFormat:          &gsheets.TextFormat{ForegroundColor: colorWhite, FontSize: 13, Bold: true},
			HorizontalAlignment: "CENTER",
		}),
		{
			UpdateSheetProperties: &gsheets.UpdateSheetPropertiesRequest{
				Properties: &gsheets.SheetProperties{
					SheetId:        SheetID,
					GridProperties: &gsheets.GridProperties{FrozenRowCount: frozenRows},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	for i, px := range ColumnWidths {
		reqs = append(reqs, &gsheets.Request{
			UpdateDimensionProperties: &gsheets.UpdateDimensionPropertiesRequest{
				Range:      &gsheets.DimensionRange{SheetId: SheetID, Dimension: "COLUMNS", StartIndex: int64(i), EndIndex: int64(i + 1)},
				Properties: &gsheets.DimensionProperties{PixelSize: px},
				Fields:     "pixelSize",
			},
		})
	}

	for _, row := range l.SectionRows {
		reqs = append(reqs, repeatFormat(rowRange(row), &gsheets.CellFormat{
			BackgroundColor: colorSection,
			TextFormat:      &gsheets.TextFormat{ForegroundColor: colorWhite, FontSize: 11, Bold: true},
		}))
	}

	for _, row := range l.TableHeaderRows {
		reqs = append(reqs, repeatFormat(rowRange(row), &gsheets.CellFormat{
			BackgroundColor: colorTint,
			TextFormat:      &gsheets.TextFormat{ForegroundColor: colorBrand, FontSize: 9, Bold: true},
		}))
	}

	for _, row := range sortedRows(l.TxnRows) {
		reqs = append(reqs, repeatFormat(rowRange(row), &gsheets.CellFormat{
			BackgroundColor: rowColor(l.TxnRows[row]),
		}))
	}

	return append(reqs, &gsheets.Request{
		MergeCells: &gsheets.MergeCellsRequest{
			Range:     &gsheets.GridRange{SheetId: SheetID, StartRowIndex: titleRow, EndRowIndex: titleRow + 1, StartColumnIndex: 0, EndColumnIndex: Columns},
			MergeType: "MERGE_ALL",
		},
	})
}

func summaryRange(row int) *gsheets.GridRange {
	rng := rowRange(row)
	rng.StartColumnIndex = 0
	rng.EndColumnIndex = 4
	return rng
}

func rowColor(t model.TransactionType) *gsheets.Color {
	switch t {
	case model.TypeIncome:
		return colorIncomeRow
	case model.TypeSpending:
		return colorSpendRow
	default:
		return colorSwapRow
	}
}

func sortedRows(m map[int]model.TransactionType) []int {
	rows := make([]int, 0, len(m))
	for row := range m {
		rows = append(rows, row)
	}
	slices.Sort(rows)
	return rows
}
