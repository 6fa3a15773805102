package logger

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"
)

// ProgressBar renders checklist completion as a fixed-width ASCII bar.
type ProgressBar struct {
	completed   int
	total       int
	width       int
	enableColor bool
}

// NewProgressBar creates a progress bar for total items. Widths below 1
// fall back to 10.
func NewProgressBar(total, width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	if total < 0 {
		total = 0
	}
	return &ProgressBar{
		total:       total,
		width:       width,
		enableColor: enableColor,
	}
}

// Update sets the number of completed items, clamped to [0, total].
func (pb *ProgressBar) Update(completed int) {
	switch {
	case completed < 0:
		completed = 0
	case completed > pb.total:
		completed = pb.total
	}
	pb.completed = completed
}

// Percentage returns the rounded completion percentage, 0 for an empty bar.
func (pb *ProgressBar) Percentage() int {
	if pb.total == 0 {
		return 0
	}
	return int(math.Round(float64(pb.completed) * 100 / float64(pb.total)))
}

// Render returns "[====      ] 4/10 (40%)". Color is cyan while incomplete
// and green at 100%.
func (pb *ProgressBar) Render() string {
	filled := 0
	if pb.total > 0 {
		filled = pb.completed * pb.width / pb.total
	}

	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s %d/%d (%d%%)", bar, pb.completed, pb.total, pb.Percentage())

	if !pb.enableColor {
		return result
	}
	if pb.total > 0 && pb.completed == pb.total {
		return color.New(color.FgGreen).Sprint(result)
	}
	return color.New(color.FgCyan).Sprint(result)
}
