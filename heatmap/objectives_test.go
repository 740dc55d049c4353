package heatmap

import (
	"strings"
	"testing"
	"time"
)

// 2025-W01 の月曜日
var firstMonday2025 = time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)

func TestGenerateObjectiveHeatmapSVG_NoWeeks(t *testing.T) {
	if svg := GenerateObjectiveHeatmapSVG(firstMonday2025, 0, nil, nil); svg != "" {
		t.Errorf("Expected empty string for zero weeks, got: %s", svg)
	}
}

func TestGenerateObjectiveHeatmapSVG_NilOptions(t *testing.T) {
	// デフォルトオプションで正常に動作することを確認
	svg := GenerateObjectiveHeatmapSVG(firstMonday2025, 52, nil, nil)
	if !strings.HasPrefix(svg, "<svg") || !strings.HasSuffix(svg, "</svg>") {
		t.Errorf("Expected SVG document, got: %s", svg)
	}
	if strings.Contains(svg, "<rect") {
		t.Error("Expected no cells without columns")
	}
	// 1月と12月のラベルが含まれること
	if !strings.Contains(svg, ">Jan<") || !strings.Contains(svg, ">Dec<") {
		t.Error("Expected month labels")
	}
}

func TestGenerateObjectiveHeatmapSVG_Cells(t *testing.T) {
	columns := []Column{
		{Week: 3, Cells: []Cell{
			{Completed: true, Label: "Run 3x"},
			{Progress: 0.5, Label: "Read <2> books"},
			{},
		}},
		{Week: 60, Cells: []Cell{{Completed: true}}}, // 範囲外は無視
	}
	opts := DefaultOptions()
	opts.Title = "2025 objectives"

	svg := GenerateObjectiveHeatmapSVG(firstMonday2025, 52, columns, opts)

	if got := strings.Count(svg, "<rect"); got != 3 {
		t.Errorf("Expected 3 cells, got %d", got)
	}
	if !strings.Contains(svg, `data-week="3" data-slot="0" data-level="4"`) {
		t.Error("Expected completed cell at top level")
	}
	if !strings.Contains(svg, `data-week="3" data-slot="1" data-level="2"`) {
		t.Error("Expected half progress at level 2")
	}
	if !strings.Contains(svg, `data-week="3" data-slot="2" data-level="0"`) {
		t.Error("Expected empty cell at level 0")
	}
	if !strings.Contains(svg, "Read &lt;2&gt; books") {
		t.Error("Expected escaped tooltip label")
	}
	if !strings.Contains(svg, `class="title">2025 objectives</text>`) {
		t.Error("Expected title")
	}
}

func TestCellLevel(t *testing.T) {
	tests := []struct {
		cell Cell
		want int
	}{
		{Cell{}, 0},
		{Cell{Progress: 0.01}, 1},
		{Cell{Progress: 0.99}, 3},
		{Cell{Progress: 1.5}, 3}, // 未完了なら最上位にはしない
		{Cell{Completed: true}, 4},
	}
	for _, tt := range tests {
		if got := cellLevel(tt.cell, 5); got != tt.want {
			t.Errorf("cellLevel(%+v) = %d, want %d", tt.cell, got, tt.want)
		}
	}
}
