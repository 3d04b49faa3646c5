package domain

import (
	"math"
	"strconv"
	"strings"
)

// DefaultNumericTolerance is the fraction of unparseable values a column may
// carry and still be treated as numeric.
const DefaultNumericTolerance = 0.1

// reservedTextColumns are always kept as text regardless of content.
var reservedTextColumns = map[string]bool{
	"YEAR": true,
	"DOY":  true,
	"DATE": true,
	"TRT":  true,
}

// missingTokens are the DSSAT sentinel spellings for "no value".
var missingTokens = map[string]bool{
	"-99":    true,
	"-99.":   true,
	"-99.0":  true,
	"-99.9":  true,
	"-99.99": true,
}

// IsMissingToken reports whether s is a DSSAT missing-value sentinel.
func IsMissingToken(s string) bool {
	return missingTokens[strings.TrimSpace(s)]
}

// IsMissingNumber reports whether f is a DSSAT missing-value sentinel.
func IsMissingNumber(f float64) bool {
	return f == -99 || f == -99.9 || f == -99.99
}

// ReplaceSentinels turns sentinel cells into missing cells in the named
// columns, or in every column when none are named.
func ReplaceSentinels(d *Dataset, names ...string) *Dataset {
	out := d.Clone()
	if len(names) == 0 {
		names = out.Names()
	}
	for _, name := range names {
		c, ok := out.Column(name)
		if !ok {
			continue
		}
		for i, v := range c.cells {
			if !v.Valid {
				continue
			}
			switch c.Kind {
			case KindText:
				if IsMissingToken(v.Text) {
					c.cells[i] = Missing
				}
			case KindInteger:
				if v.Int == -99 {
					c.cells[i] = Missing
				}
			case KindFloat:
				if IsMissingNumber(v.Float) {
					c.cells[i] = Missing
				}
			}
		}
	}
	return out
}

// StandardizeDtypes infers a storage kind for every column.
//
// Columns with no present values are dropped. YEAR, DOY, DATE and TRT stay
// text. Any other column becomes numeric when the share of present values
// that fail to parse is below tolerance; it is an integer column when every
// parsed value is whole, otherwise float. Values that fail to parse become
// missing. Remaining columns are text.
func StandardizeDtypes(d *Dataset, tolerance float64) *Dataset {
	out := NewDataset(d.Len())
	for _, c := range d.Columns() {
		if c.AllMissing() {
			continue
		}
		var std *Column
		if reservedTextColumns[c.Name] {
			std = toText(c)
		} else {
			std = inferKind(c, tolerance)
		}
		_ = out.Add(std)
	}
	return out
}

func toText(c *Column) *Column {
	if c.Kind == KindText {
		return c.clone()
	}
	cells := make([]Value, c.Len())
	for i := range cells {
		if !c.IsMissing(i) {
			cells[i] = TextValue(c.Text(i))
		}
	}
	return NewColumn(c.Name, KindText, cells)
}

// maxWholeFloat is 2^63; whole floats at or beyond it do not fit an int64.
const maxWholeFloat = 1 << 63

func inferKind(c *Column, tolerance float64) *Column {
	parsed := make([]float64, c.Len())
	present := make([]bool, c.Len())
	failed, seen := 0, 0
	whole := true
	for i := range parsed {
		if c.IsMissing(i) {
			continue
		}
		seen++
		f, ok := c.Float(i)
		if !ok {
			failed++
			continue
		}
		parsed[i], present[i] = f, true
		if f != math.Trunc(f) || math.Abs(f) >= maxWholeFloat {
			whole = false
		}
	}

	if seen == 0 || float64(failed)/float64(seen) >= tolerance {
		return toText(c)
	}

	cells := make([]Value, c.Len())
	kind := KindFloat
	if whole {
		kind = KindInteger
	}
	for i, f := range parsed {
		if !present[i] {
			continue
		}
		if whole {
			cells[i] = IntValue(int64(f))
		} else {
			cells[i] = FloatValue(f)
		}
	}
	return NewColumn(c.Name, kind, cells)
}

// CoerceNumeric converts the named columns to float, turning unparseable and
// sentinel values into missing cells.
func CoerceNumeric(d *Dataset, names ...string) *Dataset {
	out := d.Clone()
	for _, name := range names {
		c, ok := out.Column(name)
		if !ok {
			continue
		}
		vals := c.Floats()
		for i, f := range vals {
			if IsMissingNumber(f) {
				vals[i] = math.NaN()
			}
		}
		_ = out.Set(NewFloatColumn(name, vals))
	}
	return out
}

// parseNumber parses a DSSAT numeric token, accepting forms such as "1991.0".
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
