/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/friendsincode/guardrota/internal/roster"
)

// sampleResult is a two-station, two-slot day where the guards swap stations. The
// first slot of station A is flagged.
func sampleResult() *roster.Result {
	return &roster.Result{
		Start:      9 * 60,
		End:        9*60 + 30,
		Slots:      []int{9 * 60, 9*60 + 15},
		Rotation:   []string{"A", "B"},
		Importance: []string{"B", "A"},
		Columns:    []string{"A", "B"},
		Grid:       [][]int{{1, 2}, {2, roster.Unattended}},
		Guards: []roster.Guard{
			{Name: "G1", Start: 9 * 60, End: 17 * 60, LunchStart: 9*60 + 15, LunchEnd: 10*60 + 15},
			{Name: "G2", Start: 9 * 60, End: 12 * 60},
		},
		Anomalies: []roster.Cell{{Station: 0, Slot: 0}},
		LunchDrop: 1,
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	if err != nil {
		t.Fatalf("read %s!%s: %v", sheet, ref, err)
	}
	return v
}

func TestWorkbookLayout(t *testing.T) {
	data, err := Workbook(sampleResult())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f := openWorkbook(t, data)

	want := map[string]string{
		"A1": "Time",
		"B1": "9:00",
		"C1": "9:15",
		"A2": "A",
		"B2": "1",
		"C2": "2",
		"A3": "B",
		"B3": "2",
		"C3": "",
		"A6": "Guard",
		"B6": "Break Start",
		"A7": "G1",
		"B7": "9:15",
		"A8": "",
	}
	for ref, value := range want {
		if got := cellValue(t, f, ScheduleSheet, ref); got != value {
			t.Fatalf("%s = %q, want %q", ref, got, value)
		}
	}

	if got := cellValue(t, f, GuardsSheet, "B3"); got != "G2" {
		t.Fatalf("guards sheet B3 = %q, want G2", got)
	}
	if got := cellValue(t, f, GuardsSheet, "E2"); got != "9:15" {
		t.Fatalf("guards sheet E2 = %q, want 9:15", got)
	}
}

func TestWorkbookStylesAnomalies(t *testing.T) {
	data, err := Workbook(sampleResult())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f := openWorkbook(t, data)

	styleOf := func(ref string) int {
		id, err := f.GetCellStyle(ScheduleSheet, ref)
		if err != nil {
			t.Fatalf("style %s: %v", ref, err)
		}
		return id
	}

	anomaly, plain, header, station := styleOf("B2"), styleOf("C2"), styleOf("A1"), styleOf("A2")
	if anomaly == plain {
		t.Fatal("anomaly cell should be styled differently from plain grid cells")
	}
	if plain != styleOf("B3") {
		t.Fatal("grid cells should share one style")
	}
	if header == station || header == plain {
		t.Fatal("header row should have its own style")
	}

	width, err := f.GetColWidth(ScheduleSheet, "A")
	if err != nil {
		t.Fatalf("col width: %v", err)
	}
	if width != stationColumnWidth {
		t.Fatalf("column A width %v, want %d", width, stationColumnWidth)
	}
}

func TestWorkbookWithoutStations(t *testing.T) {
	res := &roster.Result{Start: 9 * 60, End: 9 * 60}
	data, err := Workbook(res)
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f := openWorkbook(t, data)
	if got := cellValue(t, f, ScheduleSheet, "A4"); got != "Guard" {
		t.Fatalf("lunch table header at A4 = %q", got)
	}
}

func TestNewView(t *testing.T) {
	v := NewView(sampleResult())

	want := []StationRow{
		{Name: "A", Cells: []int{1, 2}},
		{Name: "B", Cells: []int{2, 0}},
	}
	if diff := cmp.Diff(want, v.Stations); diff != "" {
		t.Fatalf("stations mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"9:00", "9:15"}, v.Times); diff != "" {
		t.Fatalf("times mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]LunchRow{{Guard: "G1", Start: "09:15", Label: "9:15"}}, v.Lunches); diff != "" {
		t.Fatalf("lunches mismatch (-want +got):\n%s", diff)
	}
	if v.Guards[1].Number != 2 || v.Guards[1].End != "12:00" {
		t.Fatalf("unexpected guard row: %+v", v.Guards[1])
	}
	if v.LunchDrop != 1 || len(v.Anomalies) != 1 {
		t.Fatalf("unexpected summary: drop %d anomalies %v", v.LunchDrop, v.Anomalies)
	}
}

func TestViewJSONUsesEmptyLists(t *testing.T) {
	res := sampleResult()
	res.Anomalies = nil
	res.Guards[0].LunchStart, res.Guards[0].LunchEnd = 0, 0

	data, err := json.Marshal(NewView(res))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"anomalies", "lunches"} {
		list, ok := decoded[key].([]any)
		if !ok || len(list) != 0 {
			t.Fatalf("%s should be an empty list, got %#v", key, decoded[key])
		}
	}
}
