package domain

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the text form of calendar dates stored in DATE columns.
const DateLayout = "2006-01-02"

// centuryPivot splits two-digit years: values up to the pivot are 20xx,
// later values are 19xx.
const centuryPivot = 30

// DateSpec describes a date in either of the DSSAT encodings. Compact holds
// a five-digit YYDDD code and takes precedence when set; otherwise Year and
// DOY are used. Empty fields are absent.
type DateSpec struct {
	Year    string
	DOY     string
	Compact string
}

// NormalizeDate converts a DateSpec into a calendar date. It never fails
// loudly: unresolvable inputs return ok=false and are logged at info level.
func NormalizeDate(spec DateSpec, logger *slog.Logger) (time.Time, bool) {
	if spec.Compact != "" {
		t, ok := parseCompactDate(spec.Compact)
		if !ok {
			logger.Info("date conversion failed", "compact", spec.Compact)
		}
		return t, ok
	}
	if spec.Year == "" || spec.DOY == "" {
		return time.Time{}, false
	}
	year, ok1 := wholeNumber(spec.Year)
	doy, ok2 := wholeNumber(spec.DOY)
	if !ok1 || !ok2 {
		logger.Info("date conversion failed", "year", spec.Year, "doy", spec.DOY)
		return time.Time{}, false
	}
	t, ok := DateFromYearDOY(year, doy)
	if !ok {
		logger.Info("date conversion failed", "year", spec.Year, "doy", spec.DOY)
	}
	return t, ok
}

// DateFromYearDOY returns the date for a day-of-year in the given year.
// Day 366 is only valid in leap years.
func DateFromYearDOY(year, doy int) (time.Time, bool) {
	if doy < 1 || doy > 366 || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	if t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

func parseCompactDate(code string) (time.Time, bool) {
	code = strings.TrimSpace(code)
	if len(code) != 5 || strings.Trim(code, "0123456789") != "" {
		return time.Time{}, false
	}
	yy, err := strconv.Atoi(code[:2])
	if err != nil {
		return time.Time{}, false
	}
	doy, err := strconv.Atoi(code[2:])
	if err != nil {
		return time.Time{}, false
	}
	year := 1900 + yy
	if yy <= centuryPivot {
		year = 2000 + yy
	}
	return DateFromYearDOY(year, doy)
}

func wholeNumber(s string) (int, bool) {
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// FormatDate renders a date the way DATE columns store it.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDate parses a stored DATE cell.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddDateColumn derives DATE from YEAR and DOY when both exist. Rows that
// cannot be converted get a missing DATE.
func AddDateColumn(d *Dataset, logger *slog.Logger) *Dataset {
	years, ok1 := d.Column("YEAR")
	doys, ok2 := d.Column("DOY")
	if !ok1 || !ok2 {
		return d
	}
	dates := make([]string, d.Len())
	for i := range dates {
		t, ok := NormalizeDate(DateSpec{Year: years.Text(i), DOY: doys.Text(i)}, logger)
		if ok {
			dates[i] = FormatDate(t)
		}
	}
	out := d.Clone()
	_ = out.Set(NewTextColumn("DATE", dates))
	return out
}

// NormalizeDateColumn rewrites a DATE column of compact YYDDD codes into
// calendar dates. Cells that already hold a calendar date are kept.
func NormalizeDateColumn(d *Dataset, logger *slog.Logger) *Dataset {
	c, ok := d.Column("DATE")
	if !ok {
		return d
	}
	dates := make([]string, d.Len())
	for i := range dates {
		raw := c.Text(i)
		if raw == "" {
			continue
		}
		if t, ok := ParseDate(raw); ok {
			dates[i] = FormatDate(t)
			continue
		}
		if t, ok := NormalizeDate(DateSpec{Compact: raw}, logger); ok {
			dates[i] = FormatDate(t)
		}
	}
	out := d.Clone()
	_ = out.Set(NewTextColumn("DATE", dates))
	return out
}

// dateAt returns the parsed DATE of row i in c.
func dateAt(c *Column, i int) (time.Time, bool) {
	if c.IsMissing(i) {
		return time.Time{}, false
	}
	return ParseDate(c.Text(i))
}

// minDate returns the earliest parseable date in c.
func minDate(c *Column) (time.Time, bool) {
	var best time.Time
	found := false
	for i := 0; i < c.Len(); i++ {
		t, ok := dateAt(c, i)
		if !ok {
			continue
		}
		if !found || t.Before(best) {
			best, found = t, true
		}
	}
	return best, found
}
