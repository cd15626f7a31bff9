package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/slide-review/internal/domain/reviews"
)

const sheetName = "Findings"

var header = []string{"Slide", "Category", "Basis", "Issue", "Suggestion", "Correction"}

// Renderer adapts Render to the domain port.
type Renderer struct{}

func (Renderer) Render(findings []*reviews.Finding) ([]byte, error) {
	return Render(findings)
}

// Render turns an ordered finding list into an xlsx workbook: one header
// row plus one row per finding, in the given order (no re-sorting). Rows
// with a required correction get a highlight fill. Zero findings produce a
// header-only sheet, not an error. Pure function over its input.
func Render(findings []*reviews.Finding) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDDDDD"}},
	})
	if err != nil {
		return nil, err
	}
	requiredStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFE0E0"}},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "F1", headerStyle); err != nil {
		return nil, err
	}

	for i, fd := range findings {
		row := i + 2
		values := []any{fd.SlideNumber, fd.Category, fd.Basis, fd.Issue, fd.Suggestion, string(fd.CorrectionType)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
		}
		if fd.CorrectionType == reviews.CorrectionRequired {
			start, _ := excelize.CoordinatesToCellName(1, row)
			end, _ := excelize.CoordinatesToCellName(len(header), row)
			if err := f.SetCellStyle(sheetName, start, end, requiredStyle); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
