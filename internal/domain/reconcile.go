package domain

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// derivedTimeAxes can be computed from a DATE column.
var derivedTimeAxes = map[string]bool{"DAP": true, "DOY": true, "DAS": true}

// evaluateMetadata are EVALUATE.OUT columns that never form variable pairs.
var evaluateMetadata = map[string]bool{
	"RUN":    true,
	"EXCODE": true,
	"TRNO":   true,
	"RN":     true,
	"CR":     true,
}

// ResolveMissingAxis makes sure obs has a column named xVar so observed
// points can be placed on the same axis as the simulated series.
//
// Resolution order: the exact column; a case-insensitive match copied under
// the exact name; for DAP, DAS and DOY a value derived from DATE; a
// DATE-keyed lookup into sim; a 0-based row sequence. Missing cells in the
// resolved column are then forward-filled.
func ResolveMissingAxis(obs *Dataset, xVar string, sim *Dataset, logger *slog.Logger) *Dataset {
	if obs.Empty() {
		return obs
	}
	if obs.Has(xVar) {
		return obs
	}

	out := obs.Clone()
	for _, c := range obs.Columns() {
		if strings.EqualFold(c.Name, xVar) {
			copied := c.clone()
			copied.Name = xVar
			_ = out.Set(copied)
			return out
		}
	}

	var resolved *Column
	obsDates, hasDates := obs.Column("DATE")
	upper := strings.ToUpper(xVar)

	switch {
	case derivedTimeAxes[upper] && hasDates:
		resolved = deriveTimeAxis(xVar, upper, obsDates, sim)
	case hasDates && sim.Has("DATE") && sim.Has(xVar):
		resolved = lookupBySimDate(xVar, obsDates, sim)
		if hasMissing(resolved) {
			logger.Warn("some axis values could not be inferred from simulated data", "x_var", xVar)
		}
	}

	if resolved == nil {
		logger.Warn("creating row sequence for missing axis in observed data", "x_var", xVar)
		seq := make([]int64, obs.Len())
		for i := range seq {
			seq[i] = int64(i)
		}
		resolved = NewIntColumn(xVar, seq)
	}

	_ = out.Set(forwardFill(resolved))
	return out
}

func deriveTimeAxis(name, upper string, obsDates *Column, sim *Dataset) *Column {
	cells := make([]Value, obsDates.Len())
	if upper == "DOY" {
		for i := range cells {
			if t, ok := dateAt(obsDates, i); ok {
				cells[i] = IntValue(int64(t.YearDay()))
			}
		}
		return NewColumn(name, KindInteger, cells)
	}

	var start time.Time
	ok := false
	if simDates, has := sim.Column("DATE"); has {
		start, ok = minDate(simDates)
	}
	if !ok {
		start, ok = minDate(obsDates)
	}
	if !ok {
		return NewColumn(name, KindInteger, cells)
	}
	for i := range cells {
		if t, ok := dateAt(obsDates, i); ok {
			cells[i] = IntValue(int64(math.Round(t.Sub(start).Hours() / 24)))
		}
	}
	return NewColumn(name, KindInteger, cells)
}

func lookupBySimDate(name string, obsDates *Column, sim *Dataset) *Column {
	simDates, _ := sim.Column("DATE")
	simVals, _ := sim.Column(name)

	byDate := make(map[string]Value)
	for i := 0; i < sim.Len(); i++ {
		if simDates.IsMissing(i) || simVals.IsMissing(i) {
			continue
		}
		key := simDates.Text(i)
		if _, seen := byDate[key]; !seen {
			byDate[key] = simVals.At(i)
		}
	}

	cells := make([]Value, obsDates.Len())
	for i := range cells {
		if obsDates.IsMissing(i) {
			continue
		}
		cells[i] = byDate[obsDates.Text(i)]
	}
	return NewColumn(name, simVals.Kind, cells)
}

func hasMissing(c *Column) bool {
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			return true
		}
	}
	return false
}

func forwardFill(c *Column) *Column {
	out := c.clone()
	last := Missing
	for i, v := range out.cells {
		if v.Valid {
			last = v
			continue
		}
		out.cells[i] = last
	}
	return out
}

// VariablePair links a simulated EVALUATE.OUT column to its measured twin.
type VariablePair struct {
	Label     string `json:"label"`
	Simulated string `json:"simulated"`
	Measured  string `json:"measured"`
}

// Base returns the variable code shared by both columns.
func (p VariablePair) Base() string {
	return strings.TrimSuffix(p.Simulated, "S")
}

// PairSimulatedObserved finds simulated/measured column pairs in EVALUATE.OUT
// data. A column ending in "S" pairs with the same base ending in "M".
// Metadata columns are skipped, as are pairs where either side is entirely
// missing, where no row has both values, or where every aligned value is
// equal. Pairs are sorted by label.
func PairSimulatedObserved(d *Dataset, dict CodeDictionary, logger *slog.Logger) []VariablePair {
	var pairs []VariablePair
	for _, sim := range d.Columns() {
		if evaluateMetadata[sim.Name] || !strings.HasSuffix(sim.Name, "S") {
			continue
		}
		base := strings.TrimSuffix(sim.Name, "S")
		meas, ok := d.Column(base + "M")
		if !ok {
			continue
		}
		if sim.AllMissing() || meas.AllMissing() {
			continue
		}

		s, m := alignedFloats(sim, meas)
		if len(s) == 0 {
			continue
		}
		if floats.Equal(s, m) {
			logger.Info("skipping variable with identical simulated and measured values", "variable", base)
			continue
		}

		pairs = append(pairs, VariablePair{
			Label:     dict.LabelOr(base, base),
			Simulated: sim.Name,
			Measured:  meas.Name,
		})
	}

	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		if a.Simulated != b.Simulated {
			return a.Simulated < b.Simulated
		}
		return a.Measured < b.Measured
	})
	return pairs
}

// alignedFloats returns the rows where both columns hold a numeric value.
func alignedFloats(a, b *Column) ([]float64, []float64) {
	n := min(a.Len(), b.Len())
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x, ok1 := a.Float(i)
		y, ok2 := b.Float(i)
		if !ok1 || !ok2 {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys
}

// VariableOption is a selectable variable with its display label.
type VariableOption struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// ListEvaluateVariables returns every non-metadata column that has at least
// one present value, sorted by label.
func ListEvaluateVariables(d *Dataset, dict CodeDictionary) []VariableOption {
	var out []VariableOption
	for _, c := range d.Columns() {
		if evaluateMetadata[c.Name] || c.AllMissing() {
			continue
		}
		out = append(out, VariableOption{Label: dict.LabelOr(c.Name, c.Name), Code: c.Name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Scaling is an affine transform value*Scale + Offset.
type Scaling struct {
	Scale  float64 `json:"scale"`
	Offset float64 `json:"offset"`
}

// MapColumnsToTargetRange rescales each named numeric column onto
// [targetMin, targetMax]. A constant column maps every row to the midpoint
// of the range. Scalings in overrides are used as given. Variables that are
// absent or hold no numeric values are skipped. The returned scalings are
// the ones applied to non-constant columns.
func MapColumnsToTargetRange(d *Dataset, vars []string, targetMin, targetMax float64, overrides map[string]Scaling) (map[string][]float64, map[string]Scaling) {
	scaled := make(map[string][]float64)
	used := make(map[string]Scaling)
	for _, name := range vars {
		c, ok := d.Column(name)
		if !ok {
			continue
		}
		values := c.Floats()
		present := dropNaN(values)
		if len(present) == 0 {
			continue
		}

		sc, override := overrides[name]
		if !override {
			lo, hi := floats.Min(present), floats.Max(present)
			if isClose(lo, hi) {
				mid := (targetMax + targetMin) / 2
				out := make([]float64, len(values))
				for i := range out {
					out[i] = mid
				}
				scaled[name] = out
				continue
			}
			sc.Scale = (targetMax - targetMin) / (hi - lo)
			sc.Offset = targetMin - lo*sc.Scale
		}

		out := make([]float64, len(values))
		for i, v := range values {
			out[i] = v*sc.Scale + sc.Offset
		}
		scaled[name] = out
		used[name] = sc
	}
	return scaled, used
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func isClose(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}
