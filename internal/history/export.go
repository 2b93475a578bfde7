package history

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"video-enhancer/internal/domain"
)

const exportSheet = "History"

// ExportXLSX returns an XLSX workbook (as bytes) listing entries in order.
func ExportXLSX(entries []domain.HistoryEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheet); err != nil {
		return nil, err
	}
	index, err := f.GetSheetIndex(exportSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headers := []string{
		"Date",
		"Original",
		"Enhanced Path",
		"Upscaling",
		"Sharpening",
		"Noise Reduction",
		"Frame Rate",
		"Format",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exportSheet, cell, h)
	}

	for i, e := range entries {
		row := i + 2
		values := []any{
			e.Timestamp,
			e.OriginalName,
			e.EnhancedPath,
			string(e.Settings.UpscalingFactor),
			e.Settings.Sharpening,
			string(e.Settings.NoiseReduction),
			e.Settings.FrameRate,
			string(e.Settings.OutputFormat),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(exportSheet, cell, v)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 24)
	_ = f.SetColWidth(exportSheet, "B", "C", 40)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
