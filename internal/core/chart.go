package core

// Palette is cycled by slice index.
var Palette = []string{"#8884d8", "#82ca9d", "#ffc658", "#ff7f50", "#a4de6c", "#d0ed57"}

// Slice is one pie segment: category name mapped to value.
type Slice struct {
	Name    string
	Value   float64
	Percent float64
	Color   string
}

// ColorAt returns the palette colour for the i-th slice.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// ChartSlices maps a report breakdown into chart data, keeping server order.
func ChartSlices(r Report) []Slice {
	if r.IsEmpty() {
		return nil
	}
	var total float64
	slices := make([]Slice, 0, len(r.ExpensesByCategory))
	for i, row := range r.ExpensesByCategory {
		v := row.TotalAmount.InexactFloat64()
		slices = append(slices, Slice{Name: row.CategoryName, Value: v, Color: ColorAt(i)})
		if v > 0 {
			total += v
		}
	}
	if total > 0 {
		for i := range slices {
			if slices[i].Value > 0 {
				slices[i].Percent = slices[i].Value / total * 100
			}
		}
	}
	return slices
}
