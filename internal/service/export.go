package service

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const dailySheet = "Daily averages"

var dailyHeaders = []string{"Day", "Temperature avg (°C)", "Humidity avg (%)"}

// dailyWorkbook writes report rows under a frozen, styled header. Missing averages stay empty.
func dailyWorkbook(deviceID string, report DailyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(dailySheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
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
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, h := range dailyHeaders {
		if err := setCell(f, col+1, 1, h); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(dailySheet, "A1", "C1", headerStyle); err != nil {
		return nil, fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetColWidth(dailySheet, "A", "A", 14); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(dailySheet, "B", "C", 22); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	for i, r := range report.Rows {
		row := i + 2
		if err := setCell(f, 1, row, r.Day); err != nil {
			return nil, err
		}
		if r.TempAvg != nil {
			if err := setCell(f, 2, row, *r.TempAvg); err != nil {
				return nil, err
			}
		}
		if r.HumAvg != nil {
			if err := setCell(f, 3, row, *r.HumAvg); err != nil {
				return nil, err
			}
		}
	}

	if err := f.SetPanes(dailySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("%s daily averages", deviceID),
		Subject: report.Cycle.ID,
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(dailySheet, cell, value); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}
