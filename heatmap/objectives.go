// Package heatmap renders weekly objective progress as an SVG heatmap.
package heatmap

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// GenerateObjectiveHeatmapSVG returns an SVG string with one column per ISO week
// and one row per objective slot. firstMonday is the Monday of week 1 and weeks
// is the number of ISO weeks in the year. Columns may be sparse; weeks without a
// column are left blank.
func GenerateObjectiveHeatmapSVG(firstMonday time.Time, weeks int, columns []Column, opts *Options) string {
	// default options
	if opts == nil {
		opts = DefaultOptions()
	}

	if weeks <= 0 {
		return ""
	}

	rows := 0
	for _, c := range columns {
		rows = max(rows, len(c.Cells))
	}
	if rows == 0 {
		rows = 1
	}

	// compute dimensions
	titleHeight := 0
	if opts.Title != "" {
		titleHeight = opts.FontSize + 8 // title text + padding
	}
	step := opts.CellSize + opts.CellPadding
	width := weeks*step + opts.CellPadding
	height := rows*step + opts.CellPadding + opts.FontSize + 4 + titleHeight

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height))
	sb.WriteString(fmt.Sprintf(`  <style>.label{font-family:%s;font-size:%dpx;fill:#666}.title{font-family:%s;font-size:%dpx;fill:#333;font-weight:bold}</style>`+"\n",
		opts.FontFamily, opts.FontSize, opts.FontFamily, opts.FontSize))

	if opts.Title != "" {
		sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="title">%s</text>`+"\n",
			opts.CellPadding, opts.FontSize, html.EscapeString(opts.Title)))
	}

	// month labels at the first week starting in each month
	lastMonth := time.Month(0)
	monthLabelY := opts.FontSize + titleHeight
	for w := range weeks {
		monday := firstMonday.AddDate(0, 0, 7*w)
		if monday.Month() != lastMonth && monday.Day() <= 7 {
			x := opts.CellPadding + w*step
			sb.WriteString(fmt.Sprintf(`  <text x="%d" y="%d" class="label">%s</text>`+"\n",
				x, monthLabelY, monday.Format("Jan")))
			lastMonth = monday.Month()
		}
	}

	for _, c := range columns {
		if c.Week < 1 || c.Week > weeks {
			continue
		}
		x := opts.CellPadding + (c.Week-1)*step
		for i, cell := range c.Cells {
			level := cellLevel(cell, len(opts.Colors))
			y := opts.CellPadding + opts.FontSize + 4 + titleHeight + i*step

			// 各セルに矩形と、その中にtitle要素（ツールチップ）を追加
			sb.WriteString(fmt.Sprintf(`  <rect x="%d" y="%d" width="%d" height="%d" fill="%s" data-week="%d" data-slot="%d" data-level="%d">`+"\n",
				x, y, opts.CellSize, opts.CellSize, opts.Colors[level], c.Week, i, level))
			label := fmt.Sprintf("W%02d #%d", c.Week, i+1)
			if cell.Label != "" {
				label += ": " + cell.Label
			}
			sb.WriteString(fmt.Sprintf(`    <title>%s</title>`+"\n", html.EscapeString(label)))
			sb.WriteString(`  </rect>` + "\n")
		}
	}

	sb.WriteString(`</svg>`)
	return sb.String()
}

// cellLevel maps a cell to a color level. Completed cells use the top level;
// partial progress is spread over 1..levels-2 so it never looks completed.
func cellLevel(cell Cell, levels int) int {
	if levels <= 1 {
		return 0
	}
	if cell.Completed {
		return levels - 1
	}
	if cell.Progress <= 0 || levels == 2 {
		return 0
	}
	level := 1 + int(cell.Progress*float64(levels-2))
	return min(level, levels-2)
}
