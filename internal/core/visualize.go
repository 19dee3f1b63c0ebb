package core

import (
	"fmt"
	"sort"
)

// ChartKind identifies the chart a ChartSpec describes.
type ChartKind string

const (
	ChartBar       ChartKind = "bar"
	ChartScatter   ChartKind = "scatter"
	ChartHistogram ChartKind = "histogram"
	ChartPie       ChartKind = "pie"
)

// ParseChartKind validates a chart kind name.
func ParseChartKind(s string) (ChartKind, error) {
	switch k := ChartKind(s); k {
	case ChartBar, ChartScatter, ChartHistogram, ChartPie:
		return k, nil
	}
	return "", fmt.Errorf("unknown chart kind %q", s)
}

// ChartSpec is a declarative chart: its kind plus the columns it reads.
// Bar and scatter read X and Y, histogram reads X, pie groups on Category
// and sums Value.
type ChartSpec struct {
	Kind     ChartKind `json:"kind"`
	Title    string    `json:"title"`
	X        string    `json:"x,omitempty"`
	Y        string    `json:"y,omitempty"`
	Category string    `json:"category,omitempty"`
	Value    string    `json:"value,omitempty"`
}

// ChartChoices are the user's axis picks. Blank fields take defaults:
// X and Y are the first two numeric columns, Category the first text column,
// and Value the first numeric column.
type ChartChoices struct {
	X        string `json:"x,omitempty"`
	Y        string `json:"y,omitempty"`
	Category string `json:"category,omitempty"`
	Value    string `json:"value,omitempty"`
}

// ChartSpecs derives the charts d supports.
//
//   - 2+ numeric columns: a bar chart and a scatter plot over (X, Y)
//   - exactly 1 numeric column: a histogram over it
//   - 1+ numeric and 1+ text columns: additionally a pie chart
//
// With no numeric columns it returns an empty list and ErrNoNumericData,
// which is a warning rather than a failure.
func ChartSpecs(d *Dataset, choices ChartChoices) ([]ChartSpec, error) {
	numeric := d.NamesOfKind(KindNumeric)
	text := d.NamesOfKind(KindText)

	if len(numeric) == 0 {
		return []ChartSpec{}, ErrNoNumericData
	}

	var specs []ChartSpec
	if len(numeric) >= 2 {
		x, err := pickColumn(d, choices.X, numeric[0], KindNumeric)
		if err != nil {
			return nil, err
		}
		y, err := pickColumn(d, choices.Y, numeric[1], KindNumeric)
		if err != nil {
			return nil, err
		}
		specs = append(specs,
			ChartSpec{Kind: ChartBar, Title: "Bar Chart", X: x, Y: y},
			ChartSpec{Kind: ChartScatter, Title: "Scatter Plot", X: x, Y: y},
		)
	} else {
		specs = append(specs, ChartSpec{Kind: ChartHistogram, Title: "Histogram", X: numeric[0]})
	}

	if len(text) > 0 {
		category, err := pickColumn(d, choices.Category, text[0], KindText)
		if err != nil {
			return nil, err
		}
		value, err := pickColumn(d, choices.Value, numeric[0], KindNumeric)
		if err != nil {
			return nil, err
		}
		specs = append(specs, ChartSpec{Kind: ChartPie, Title: "Pie Chart", Category: category, Value: value})
	}

	return specs, nil
}

// pickColumn returns choice, or def when choice is blank, after checking kind.
func pickColumn(d *Dataset, choice, def string, want Kind) (string, error) {
	if choice == "" {
		return def, nil
	}
	col, ok := d.Column(choice)
	if !ok {
		return "", &UnknownColumnError{Name: choice}
	}
	if col.Kind != want {
		return "", fmt.Errorf("%w: %q is %s, want %s", ErrColumnKind, choice, col.Kind, want)
	}
	return choice, nil
}

// FindChart returns the first spec of the given kind.
func FindChart(specs []ChartSpec, kind ChartKind) (ChartSpec, bool) {
	for _, s := range specs {
		if s.Kind == kind {
			return s, true
		}
	}
	return ChartSpec{}, false
}

// PieSlice is one group of a pie chart.
type PieSlice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// PieSlices groups d on spec.Category and sums spec.Value per group.
// Rows with a missing category are dropped and missing values add nothing.
// Slices are sorted by label.
func PieSlices(d *Dataset, spec ChartSpec) ([]PieSlice, error) {
	cat, ok := d.Column(spec.Category)
	if !ok {
		return nil, &UnknownColumnError{Name: spec.Category}
	}
	val, ok := d.Column(spec.Value)
	if !ok {
		return nil, &UnknownColumnError{Name: spec.Value}
	}
	if val.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q is %s, want numeric", ErrColumnKind, spec.Value, val.Kind)
	}

	sums := make(map[string]float64)
	for i := 0; i < d.NumRows(); i++ {
		if cat.IsMissing(i) {
			continue
		}
		label := cat.Display(i)
		if val.IsMissing(i) {
			sums[label] += 0
			continue
		}
		sums[label] += val.Numbers[i].Float64
	}

	slices := make([]PieSlice, 0, len(sums))
	for label, sum := range sums {
		slices = append(slices, PieSlice{Label: label, Value: sum})
	}
	sort.Slice(slices, func(i, j int) bool { return slices[i].Label < slices[j].Label })
	return slices, nil
}

// NumericValues returns the present values of a numeric column, in row order.
func NumericValues(d *Dataset, name string) ([]float64, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, &UnknownColumnError{Name: name}
	}
	if col.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q is %s, want numeric", ErrColumnKind, name, col.Kind)
	}
	return presentValues(col), nil
}

// Points returns the (x, y) pairs of two numeric columns, skipping rows where
// either side is missing.
func Points(d *Dataset, x, y string) (xs, ys []float64, err error) {
	xc, ok := d.Column(x)
	if !ok {
		return nil, nil, &UnknownColumnError{Name: x}
	}
	yc, ok := d.Column(y)
	if !ok {
		return nil, nil, &UnknownColumnError{Name: y}
	}
	if xc.Kind != KindNumeric || yc.Kind != KindNumeric {
		return nil, nil, fmt.Errorf("%w: %q and %q must both be numeric", ErrColumnKind, x, y)
	}
	for i := 0; i < d.NumRows(); i++ {
		if xc.IsMissing(i) || yc.IsMissing(i) {
			continue
		}
		xs = append(xs, xc.Numbers[i].Float64)
		ys = append(ys, yc.Numbers[i].Float64)
	}
	return xs, ys, nil
}
