/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/friendsincode/guardrota/internal/clock"
	"github.com/friendsincode/guardrota/internal/roster"
)

// Workbook file metadata.
const (
	FileName    = "schedule.xlsx"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	ScheduleSheet = "Schedule"
	GuardsSheet   = "Guards"
)

// Colors used by the schedule sheet.
const (
	HeaderColor  = "4F81BD"
	StationColor = "D9E1F2"
	DataColor    = "FFFFFF"
	AnomalyColor = "CCCCCC"
)

const (
	stationColumnWidth = 12
	slotColumnWidth    = 6
	rowHeight          = 20
	// lunchTableGap is the number of blank rows between the grid and the lunch table.
	lunchTableGap = 2
)

type styles struct {
	header, station, data, anomaly int
}

// Workbook renders res as an XLSX file.
func Workbook(res *roster.Result) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ScheduleSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeSchedule(f, res, st); err != nil {
		return nil, err
	}
	if err := writeGuards(f, res, st); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	solid := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}

	var st styles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{
		Fill:      solid(HeaderColor),
		Font:      &excelize.Font{Color: "FFFFFF", Bold: true, Size: 10},
		Alignment: center,
		Border:    border,
	}); err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	if st.station, err = f.NewStyle(&excelize.Style{
		Fill:      solid(StationColor),
		Font:      &excelize.Font{Bold: true, Size: 10},
		Alignment: center,
		Border:    border,
	}); err != nil {
		return st, fmt.Errorf("station style: %w", err)
	}
	if st.data, err = f.NewStyle(&excelize.Style{
		Fill:      solid(DataColor),
		Font:      &excelize.Font{Size: 10},
		Alignment: center,
		Border:    border,
	}); err != nil {
		return st, fmt.Errorf("data style: %w", err)
	}
	if st.anomaly, err = f.NewStyle(&excelize.Style{
		Fill:      solid(AnomalyColor),
		Font:      &excelize.Font{Size: 10},
		Alignment: center,
		Border:    border,
	}); err != nil {
		return st, fmt.Errorf("anomaly style: %w", err)
	}
	return st, nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("render: cell %d,%d: %v", col, row, err))
	}
	return name
}

func writeSchedule(f *excelize.File, res *roster.Result, st styles) error {
	sheet := ScheduleSheet
	slots := len(res.Slots)
	stations := len(res.Rotation)
	lastCol := slots + 1

	set := func(col, row int, value any) error {
		if err := f.SetCellValue(sheet, cell(col, row), value); err != nil {
			return fmt.Errorf("write %s: %w", cell(col, row), err)
		}
		return nil
	}

	if err := set(1, 1, "Time"); err != nil {
		return err
	}
	for i, t := range res.Slots {
		if err := set(i+2, 1, clock.Label(t)); err != nil {
			return err
		}
	}

	view := res.StationView()
	for s, name := range res.Rotation {
		row := s + 2
		if err := set(1, row, name); err != nil {
			return err
		}
		for slot := 0; slot < slots; slot++ {
			if g := view[s][slot]; g != roster.Unattended {
				if err := set(slot+2, row, g); err != nil {
					return err
				}
			}
		}
	}

	if err := f.SetCellStyle(sheet, cell(1, 1), cell(lastCol, 1), st.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if stations > 0 {
		if err := f.SetCellStyle(sheet, cell(1, 2), cell(1, stations+1), st.station); err != nil {
			return fmt.Errorf("style stations: %w", err)
		}
		if slots > 0 {
			if err := f.SetCellStyle(sheet, cell(2, 2), cell(lastCol, stations+1), st.data); err != nil {
				return fmt.Errorf("style grid: %w", err)
			}
		}
	}
	for _, a := range res.Anomalies {
		ref := cell(a.Slot+2, a.Station+2)
		if err := f.SetCellStyle(sheet, ref, ref, st.anomaly); err != nil {
			return fmt.Errorf("style anomaly %s: %w", ref, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", stationColumnWidth); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if slots > 0 {
		last, err := excelize.ColumnNumberToName(lastCol)
		if err != nil {
			return fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheet, "B", last, slotColumnWidth); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}
	for row := 1; row <= stations+1; row++ {
		if err := f.SetRowHeight(sheet, row, rowHeight); err != nil {
			return fmt.Errorf("row height: %w", err)
		}
	}

	lunchRow := stations + 2 + lunchTableGap
	if err := set(1, lunchRow, "Guard"); err != nil {
		return err
	}
	if err := set(2, lunchRow, "Break Start"); err != nil {
		return err
	}
	for i, lunch := range lunchRows(res.Guards) {
		if err := set(1, lunchRow+1+i, lunch.Guard); err != nil {
			return err
		}
		if err := set(2, lunchRow+1+i, lunch.Label); err != nil {
			return err
		}
	}
	return nil
}

func writeGuards(f *excelize.File, res *roster.Result, st styles) error {
	sheet := GuardsSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create guards sheet: %w", err)
	}
	headers := []string{"No.", "Guard", "Start", "End", "Break Start"}
	for i, h := range headers {
		if err := f.SetCellValue(sheet, cell(i+1, 1), h); err != nil {
			return fmt.Errorf("write guards header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, cell(1, 1), cell(len(headers), 1), st.header); err != nil {
		return fmt.Errorf("style guards header: %w", err)
	}

	for i, g := range res.Guards {
		row := i + 2
		values := []any{i + 1, g.Name, clock.Label(g.Start), clock.Label(g.End), ""}
		if g.Absent() {
			values[2], values[3] = "absent", "absent"
		}
		if g.HasLunch() {
			values[4] = clock.Label(g.LunchStart)
		}
		for col, v := range values {
			if err := f.SetCellValue(sheet, cell(col+1, row), v); err != nil {
				return fmt.Errorf("write guard %s: %w", g.Name, err)
			}
		}
	}
	if err := f.SetColWidth(sheet, "B", "B", stationColumnWidth); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	return nil
}
