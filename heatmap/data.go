package heatmap

// Cell holds the progress of one objective slot in one week.
type Cell struct {
	Completed bool
	Progress  float64 // current/target in 0..1, ignored when Completed
	Label     string  // tooltip text
}

// Column holds the cells of one ISO week.
type Column struct {
	Week  int // ISO week number, 1-based
	Cells []Cell
}

// Options configures rendering parameters.
type Options struct {
	CellSize    int      // size of each cell (px)
	CellPadding int      // padding between cells (px)
	Colors      []string // array of N CSS colors for levels 0..N-1
	FontSize    int      // font size for month labels (px)
	FontFamily  string   // font family for labels
	Title       string   // title text, omitted when empty
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{
		CellSize:    12,
		CellPadding: 2,
		FontSize:    10,
		FontFamily:  "sans-serif",
		Colors:      []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"},
	}
}
