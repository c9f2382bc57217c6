package http

import (
	"fmt"
	"math"
	"strings"

	"smartexpense/internal/core"
)

// Pie geometry in SVG user units.
const (
	pieSize   = 300
	pieCenter = pieSize / 2
	pieRadius = 120
)

// PieSlice is a report row ready to draw.
type PieSlice struct {
	core.Slice
	Path   string
	Amount string
}

// PieChart lays report rows out clockwise from twelve o'clock. Rows with a
// non-positive value keep their legend entry but get no path.
func PieChart(r core.Report) []PieSlice {
	slices := core.ChartSlices(r)
	out := make([]PieSlice, 0, len(slices))

	angle := 0.0
	for i, s := range slices {
		ps := PieSlice{Slice: s, Amount: core.FormatMoney(r.ExpensesByCategory[i].TotalAmount)}
		if s.Percent > 0 {
			sweep := s.Percent / 100 * 2 * math.Pi
			ps.Path = arcPath(angle, angle+sweep)
			angle += sweep
		}
		out = append(out, ps)
	}
	return out
}

// arcPath returns a wedge from start to end radians, measured clockwise from the top.
func arcPath(start, end float64) string {
	if end-start >= 2*math.Pi-1e-9 {
		// A single arc cannot close on itself; draw the full disc as two halves.
		top := point(0)
		bottom := point(math.Pi)
		return fmt.Sprintf("M %s A %d %d 0 1 1 %s A %d %d 0 1 1 %s Z",
			top, pieRadius, pieRadius, bottom, pieRadius, pieRadius, top)
	}

	large := 0
	if end-start > math.Pi {
		large = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "M %d %d L %s A %d %d 0 %d 1 %s Z",
		pieCenter, pieCenter, point(start), pieRadius, pieRadius, large, point(end))
	return b.String()
}

func point(theta float64) string {
	x := pieCenter + pieRadius*math.Sin(theta)
	y := pieCenter - pieRadius*math.Cos(theta)
	return fmt.Sprintf("%.2f %.2f", x, y)
}
