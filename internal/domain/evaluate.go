package domain

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// MetricsRecord is the agreement between simulated and observed values for
// one treatment and variable.
type MetricsRecord struct {
	File          string   `json:"file,omitempty"`
	Treatment     string   `json:"treatment"`
	TreatmentName string   `json:"treatment_name,omitempty"`
	Variable      string   `json:"variable"`
	Label         string   `json:"label"`
	N             int      `json:"n"`
	RMSE          float64  `json:"rmse"`
	NRMSE         *float64 `json:"nrmse"`
	DStat         *float64 `json:"d_stat"`
}

func newMetricsRecord(a Agreement) MetricsRecord {
	return MetricsRecord{N: a.N, RMSE: a.RMSE, NRMSE: a.NRMSE, DStat: a.DStat}
}

// PrepareSimulated readies a parsed output file for comparison: column
// names are upper-cased, TRT is copied from TRNO or defaulted to "1", DATE
// is derived from YEAR and DOY when missing, and FILE records the source.
func PrepareSimulated(d *Dataset, file string, logger *slog.Logger) *Dataset {
	if d.Empty() {
		return d
	}
	out := d.Clone()
	for _, name := range out.Names() {
		if up := strings.ToUpper(name); up != name && !out.Has(up) {
			out.Rename(name, up)
		}
	}

	if !out.Has("TRT") {
		if trno, ok := out.Column("TRNO"); ok {
			vals := make([]string, out.Len())
			for i := range vals {
				vals[i] = trno.Text(i)
			}
			_ = out.Set(NewTextColumn("TRT", vals))
		} else {
			_ = out.Set(constantText("TRT", "1", out.Len()))
		}
	}

	if !out.Has("DATE") {
		out = AddDateColumn(out, logger)
	}
	_ = out.Set(constantText("FILE", file, out.Len()))
	return out
}

// PrepareObserved readies parsed observed data for comparison with sim:
// compact DATE codes are normalized and rows without a date dropped, the
// x-axis column is resolved, TRNO becomes TRT, and the y-variables are
// coerced to numbers with sentinels treated as missing.
func PrepareObserved(obs *Dataset, xVar string, yVars []string, sim *Dataset, logger *slog.Logger) *Dataset {
	if obs.Empty() {
		return obs
	}
	out := obs
	if out.Has("DATE") {
		out = NormalizeDateColumn(out, logger)
		dates, _ := out.Column("DATE")
		out = out.Filter(func(i int) bool { return !dates.IsMissing(i) })
	}
	if xVar != "" {
		out = ResolveMissingAxis(out, xVar, sim, logger)
	}
	if out.Has("TRNO") {
		out = out.Clone()
		out.Rename("TRNO", "TRT")
	}
	return CoerceNumeric(out, yVars...)
}

// EvaluateAgreement computes one record per simulated file, requested
// variable and treatment. Only treatments present in both datasets are
// used, limited to selected when it is non-empty. Simulated and observed
// rows are inner-joined on DATE before the statistics are computed.
func EvaluateAgreement(sim, obs *Dataset, yVars, selected []string, names map[string]string, dict CodeDictionary) []MetricsRecord {
	if sim.Empty() || obs.Empty() || !obs.Has("TRT") || !obs.Has("DATE") {
		return nil
	}

	keep := make(map[string]bool, len(selected))
	for _, s := range selected {
		keep[s] = true
	}

	var records []MetricsRecord
	for _, file := range distinct(sim, "FILE") {
		fileSim := sim
		if sim.Has("FILE") {
			fileSim = filterEq(sim, "FILE", file)
		}
		if !fileSim.Has("TRT") || !fileSim.Has("DATE") {
			continue
		}

		common := intersect(distinct(obs, "TRT"), distinct(fileSim, "TRT"))
		for _, v := range yVars {
			if !obs.Has(v) || !fileSim.Has(v) {
				continue
			}
			for _, trt := range common {
				if len(keep) > 0 && !keep[trt] {
					continue
				}
				s, o := joinOnDate(filterEq(fileSim, "TRT", trt), filterEq(obs, "TRT", trt), v)
				a, ok := ComputeAgreement(s, o)
				if !ok {
					continue
				}
				rec := newMetricsRecord(a)
				rec.File = file
				rec.Treatment = trt
				rec.TreatmentName = TreatmentDisplayName(trt, names)
				rec.Variable = v
				rec.Label = dict.LabelOr(v, v)
				records = append(records, rec)
			}
		}
	}
	return records
}

// EvaluatePairs computes one record per variable pair across all rows of an
// EVALUATE.OUT dataset.
func EvaluatePairs(d *Dataset, pairs []VariablePair) []MetricsRecord {
	var records []MetricsRecord
	for _, p := range pairs {
		s, ok1 := d.Column(p.Simulated)
		m, ok2 := d.Column(p.Measured)
		if !ok1 || !ok2 {
			continue
		}
		a, ok := ComputeAgreement(s.Floats(), m.Floats())
		if !ok {
			continue
		}
		rec := newMetricsRecord(a)
		rec.Treatment = "all"
		rec.Variable = p.Base()
		rec.Label = p.Label
		records = append(records, rec)
	}
	return records
}

// TreatmentDisplayName renders "<n> - <name>" for a known treatment and
// "Treatment <n>" otherwise.
func TreatmentDisplayName(trt string, names map[string]string) string {
	if name, ok := names[trt]; ok && name != "" {
		return trt + " - " + name
	}
	return "Treatment " + trt
}

// joinOnDate pairs every simulated row with every observed row sharing its
// DATE, in simulated row order.
func joinOnDate(sim, obs *Dataset, v string) ([]float64, []float64) {
	simDates, _ := sim.Column("DATE")
	obsDates, _ := obs.Column("DATE")
	simVals, _ := sim.Column(v)
	obsVals, _ := obs.Column(v)

	byDate := make(map[string][]int)
	for i := 0; i < obs.Len(); i++ {
		if obsDates.IsMissing(i) {
			continue
		}
		key := obsDates.Text(i)
		byDate[key] = append(byDate[key], i)
	}

	var s, o []float64
	for i := 0; i < sim.Len(); i++ {
		if simDates.IsMissing(i) {
			continue
		}
		for _, j := range byDate[simDates.Text(i)] {
			sv, _ := simVals.Float(i)
			ov, _ := obsVals.Float(j)
			s = append(s, sv)
			o = append(o, ov)
		}
	}
	return s, o
}

// distinct returns the present values of a column, sorted with numeric
// strings in numeric order. A missing column yields a single "" entry so
// callers iterate once.
func distinct(d *Dataset, name string) []string {
	c, ok := d.Column(name)
	if !ok {
		return []string{""}
	}
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		v := c.Text(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sortNatural(out)
	return out
}

func sortNatural(vals []string) {
	sort.SliceStable(vals, func(i, j int) bool {
		a, errA := strconv.ParseFloat(vals[i], 64)
		b, errB := strconv.ParseFloat(vals[j], 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return vals[i] < vals[j]
		}
	})
}

func intersect(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, v := range b {
		inB[v] = true
	}
	var out []string
	for _, v := range a {
		if inB[v] {
			out = append(out, v)
		}
	}
	return out
}

func filterEq(d *Dataset, name, value string) *Dataset {
	c, ok := d.Column(name)
	if !ok {
		return NewDataset(0)
	}
	return d.Filter(func(i int) bool { return !c.IsMissing(i) && c.Text(i) == value })
}

func constantText(name, value string, n int) *Column {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = value
	}
	return NewTextColumn(name, vals)
}
