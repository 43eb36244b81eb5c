// Package pdf holds the page layout shared by the rasterizer strategies.
package pdf

// A4 paper in inches with 15 mm margins on every side.
const (
	PaperWidthInches  = 8.27
	PaperHeightInches = 11.69
	MarginInches      = 15.0 / 25.4
)
