package httpapi

import (
	"bytes"
	"fmt"

	"github.com/smanilla/mindtrack/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Assessments"

// AssessmentExportHeader column order of the history export
var AssessmentExportHeader = []string{
	"Date",
	"Crisis",
	"Descriptive Summary",
	"Advice Summary",
}

var exportColumnWidths = []float64{20, 10, 80, 80}

// GenerateAssessmentExport renders items as an xlsx workbook with a frozen header row.
func GenerateAssessmentExport(items []*models.Assessment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	for col, header := range AssessmentExportHeader {
		if err := setCell(f, col+1, 1, header); err != nil {
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(exportSheet, name, name, exportColumnWidths[col]); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}
	if err := f.SetCellStyle(exportSheet, "A1", "D1", headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, a := range items {
		row := i + 2
		crisis := "No"
		if a.Crisis {
			crisis = "Yes"
		}
		values := []any{
			a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			crisis,
			a.DescriptiveSummary,
			a.AdviceSummary,
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return nil, err
			}
		}
	}
	if len(items) > 0 {
		last := fmt.Sprintf("D%d", len(items)+1)
		if err := f.SetCellStyle(exportSheet, "C2", last, wrapStyle); err != nil {
			return nil, fmt.Errorf("failed to set cell style: %w", err)
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(exportSheet, cell, value); err != nil {
		return fmt.Errorf("failed to set cell %s: %w", cell, err)
	}
	return nil
}
