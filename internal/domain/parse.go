package domain

import (
	"fmt"
	"log/slog"
	"strings"
)

// RowPolicy decides what happens to a data row whose token count differs
// from its header.
type RowPolicy int

const (
	// RowReject drops mismatched rows and logs a warning.
	RowReject RowPolicy = iota
	// RowPad pads short rows with missing cells and truncates long rows.
	RowPad
)

// ParseRowPolicy maps a config value onto a RowPolicy.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return RowReject, nil
	case "pad":
		return RowPad, nil
	default:
		return RowReject, fmt.Errorf("unknown row policy %q", s)
	}
}

func (p RowPolicy) String() string {
	if p == RowPad {
		return "pad"
	}
	return "reject"
}

// ParseOptions carries the knobs shared by the DSSAT text parsers.
type ParseOptions struct {
	Policy           RowPolicy
	NumericTolerance float64
	Logger           *slog.Logger
	// Source names the input in log lines.
	Source string
	// OnReject, if set, is called once for every dropped row.
	OnReject func(line int, text string)
}

func (o ParseOptions) tolerance() float64 {
	if o.NumericTolerance <= 0 || o.NumericTolerance >= 1 {
		return DefaultNumericTolerance
	}
	return o.NumericTolerance
}

// section is one header line and the data rows that follow it.
type section struct {
	header []string
	rows   [][]string
}

// readSection collects data rows after the header at lines[start]. The run
// ends at the next section marker ("*") or the next header ("@"). Blank
// lines are skipped. It returns the index of the line that stopped it.
// lineNo maps an index into lines to the 1-based line number of the source.
func readSection(lines []string, start int, header []string, opts ParseOptions, lineNo func(int) int) (section, int) {
	sec := section{header: header}
	i := start + 1
	for ; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "@") {
			break
		}
		tokens := strings.Fields(line)
		row, ok := fitRow(tokens, len(header), opts.Policy)
		if !ok {
			opts.Logger.Warn("row width does not match header, dropping row",
				"source", opts.Source,
				"line", lineNo(i),
				"tokens", len(tokens),
				"columns", len(header),
			)
			if opts.OnReject != nil {
				opts.OnReject(lineNo(i), line)
			}
			continue
		}
		sec.rows = append(sec.rows, row)
	}
	return sec, i
}

func fitRow(tokens []string, width int, policy RowPolicy) ([]string, bool) {
	if len(tokens) == width {
		return tokens, true
	}
	if policy != RowPad {
		return nil, false
	}
	row := make([]string, width)
	copy(row, tokens)
	return row, true
}

// headerTokens splits an "@" header line into column names.
func headerTokens(line string) []string {
	return strings.Fields(strings.TrimPrefix(strings.TrimSpace(line), "@"))
}

// toDataset builds a text dataset from a section. Duplicate header names
// keep their first occurrence.
func (s section) toDataset(extra map[string]string) *Dataset {
	d := NewDataset(len(s.rows))
	for j, name := range s.header {
		if d.Has(name) {
			continue
		}
		vals := make([]string, len(s.rows))
		for i, row := range s.rows {
			vals[i] = row[j]
		}
		_ = d.Add(NewTextColumn(name, vals))
	}
	for name, v := range extra {
		if d.Has(name) {
			continue
		}
		vals := make([]string, len(s.rows))
		for i := range vals {
			vals[i] = v
		}
		_ = d.Add(NewTextColumn(name, vals))
	}
	return d
}

func isTreatmentMarker(line string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "TREATMENT")
}

// ParseOutput parses a DSSAT simulation output file (such as PlantGro.OUT).
//
// When the file contains TREATMENT marker lines, each marker opens a block
// that ends at the next marker; the first token after the keyword becomes
// the block's TRT value, and the block is parsed with the first "@" header
// after its marker. Lines before the first marker are ignored. Without
// markers the whole file is one block and no TRT column is added. The
// result is typed with StandardizeDtypes; an empty dataset means no data.
func ParseOutput(lines []string, opts ParseOptions) *Dataset {
	var markers []int
	for i, line := range lines {
		if isTreatmentMarker(line) {
			markers = append(markers, i)
		}
	}

	var parts []*Dataset
	if len(markers) == 0 {
		if d := parseBlock(lines, 0, nil, opts); d != nil {
			parts = append(parts, d)
		}
	}
	for k, start := range markers {
		end := len(lines)
		if k+1 < len(markers) {
			end = markers[k+1]
		}
		var trt string
		if fields := strings.Fields(strings.TrimSpace(lines[start])); len(fields) > 1 {
			trt = fields[1]
		}
		extra := map[string]string{"TRT": trt}
		if d := parseBlock(lines[start:end], start, extra, opts); d != nil {
			parts = append(parts, d)
		}
	}

	if len(parts) == 0 {
		opts.Logger.Error("no data rows found", "source", opts.Source)
		return NewDataset(0)
	}
	return StandardizeDtypes(Concat(parts...), opts.tolerance())
}

func parseBlock(block []string, offset int, extra map[string]string, opts ParseOptions) *Dataset {
	for i, line := range block {
		if !strings.HasPrefix(strings.TrimSpace(line), "@") {
			continue
		}
		sec, _ := readSection(block, i, headerTokens(line), opts, func(n int) int { return offset + n + 1 })
		if len(sec.rows) == 0 {
			return nil
		}
		return sec.toDataset(extra)
	}
	return nil
}

// ParseObserved parses a DSSAT observed-data file (*.xxT). Header names are
// upper-cased and TRNO is renamed to TRT. Each "@" header starts its own
// section; sections are stacked with Concat. Comment lines starting with "*"
// or "!" are skipped.
func ParseObserved(lines []string, opts ParseOptions) *Dataset {
	var parts []*Dataset
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "@") {
			continue
		}
		header := headerTokens(trimmed)
		for j, h := range header {
			h = strings.ToUpper(h)
			if h == "TRNO" {
				h = "TRT"
			}
			header[j] = h
		}
		sec, next := readObservedSection(lines, i, header, opts)
		if len(sec.rows) > 0 {
			parts = append(parts, sec.toDataset(nil))
		}
		i = next - 1
	}

	if len(parts) == 0 {
		opts.Logger.Error("no header or data rows in observed file", "source", opts.Source)
		return NewDataset(0)
	}
	return StandardizeDtypes(Concat(parts...), opts.tolerance())
}

// readObservedSection is readSection with "!" comments tolerated inside the
// data run.
func readObservedSection(lines []string, start int, header []string, opts ParseOptions) (section, int) {
	filtered := make([]string, 0, len(lines)-start)
	index := make([]int, 0, len(lines)-start)
	for i := start; i < len(lines); i++ {
		if i > start && strings.HasPrefix(strings.TrimSpace(lines[i]), "!") {
			continue
		}
		filtered = append(filtered, lines[i])
		index = append(index, i)
	}
	sec, stop := readSection(filtered, 0, header, opts, func(n int) int { return index[n] + 1 })
	if stop >= len(index) {
		return sec, len(lines)
	}
	return sec, index[stop]
}

// Treatment is one row of the *TREATMENTS section of an experiment file.
type Treatment struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

// ParseTreatments reads the *TREATMENTS section of a DSSAT experiment (X)
// file. Records are lines that start with a space; the number is taken from
// columns 0-3 and the name from columns 9-36.
func ParseTreatments(lines []string) []Treatment {
	var out []Treatment
	in := false
	for _, line := range lines {
		if strings.HasPrefix(line, "*") {
			if in {
				break
			}
			in = strings.HasPrefix(line, "*TREATMENT")
			continue
		}
		if !in || !strings.HasPrefix(line, " ") || strings.TrimSpace(line) == "" {
			continue
		}
		number := strings.TrimSpace(field(line, 0, 3))
		if number == "" {
			continue
		}
		out = append(out, Treatment{
			Number: number,
			Name:   strings.TrimSpace(field(line, 9, 36)),
		})
	}
	return out
}

// TreatmentNames indexes treatments by number.
func TreatmentNames(ts []Treatment) map[string]string {
	m := make(map[string]string, len(ts))
	for _, t := range ts {
		m[t.Number] = t.Name
	}
	return m
}

// treatmentAliases are the EVALUATE.OUT spellings of the treatment column,
// in lookup order.
var treatmentAliases = []string{"TRNO", "TR", "TRT", "TN"}

// ParseEvaluate parses an EVALUATE.OUT summary file. Sentinels become
// missing, columns are typed with StandardizeDtypes, and the treatment
// column is renamed to TRNO; when none exists TRNO is set to 1.
func ParseEvaluate(lines []string, opts ParseOptions) *Dataset {
	headerAt := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "@") {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		opts.Logger.Error("no header line in evaluate file", "source", opts.Source)
		return NewDataset(0)
	}

	sec, _ := readSection(lines, headerAt, headerTokens(lines[headerAt]), opts, func(n int) int { return n + 1 })
	if len(sec.rows) == 0 {
		opts.Logger.Error("no data rows in evaluate file", "source", opts.Source)
		return NewDataset(0)
	}

	d := ReplaceSentinels(sec.toDataset(nil))
	d = StandardizeDtypes(d, opts.tolerance())

	found := ""
	for _, alias := range treatmentAliases {
		for _, name := range d.Names() {
			if strings.EqualFold(name, alias) {
				found = name
				break
			}
		}
		if found != "" {
			break
		}
	}
	if found == "" {
		ones := make([]int64, d.Len())
		for i := range ones {
			ones[i] = 1
		}
		_ = d.Set(NewIntColumn("TRNO", ones))
		return d
	}
	d.Rename(found, "TRNO")
	return d
}

// field returns line[start:end] clamped to the line length.
func field(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return line[start:end]
}
