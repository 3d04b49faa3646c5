package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Kind tags the storage type of a Column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Value is a single cell. Which field is meaningful depends on the Kind of
// the owning column; Valid is false for missing cells.
type Value struct {
	Text  string
	Int   int64
	Float float64
	Valid bool
}

// Missing is the zero Value.
var Missing = Value{}

// TextValue returns a present text cell.
func TextValue(s string) Value { return Value{Text: s, Valid: true} }

// IntValue returns a present integer cell.
func IntValue(n int64) Value { return Value{Int: n, Valid: true} }

// FloatValue returns a float cell; NaN is stored as missing.
func FloatValue(f float64) Value {
	if math.IsNaN(f) {
		return Missing
	}
	return Value{Float: f, Valid: true}
}

// Column is a named, typed sequence of cells.
type Column struct {
	Name  string
	Kind  Kind
	cells []Value
}

// NewColumn builds a column from cells of the given kind.
func NewColumn(name string, kind Kind, cells []Value) *Column {
	return &Column{Name: name, Kind: kind, cells: cells}
}

// NewTextColumn builds a text column; empty strings are missing.
func NewTextColumn(name string, values []string) *Column {
	cells := make([]Value, len(values))
	for i, v := range values {
		if v != "" {
			cells[i] = TextValue(v)
		}
	}
	return NewColumn(name, KindText, cells)
}

// NewFloatColumn builds a float column; NaN values are missing.
func NewFloatColumn(name string, values []float64) *Column {
	cells := make([]Value, len(values))
	for i, v := range values {
		cells[i] = FloatValue(v)
	}
	return NewColumn(name, KindFloat, cells)
}

// NewIntColumn builds an integer column with every cell present.
func NewIntColumn(name string, values []int64) *Column {
	cells := make([]Value, len(values))
	for i, v := range values {
		cells[i] = IntValue(v)
	}
	return NewColumn(name, KindInteger, cells)
}

func (c *Column) Len() int { return len(c.cells) }

// At returns the raw cell at row i.
func (c *Column) At(i int) Value { return c.cells[i] }

func (c *Column) IsMissing(i int) bool { return !c.cells[i].Valid }

// Text renders cell i as a string regardless of kind. Missing cells render
// as the empty string.
func (c *Column) Text(i int) string {
	v := c.cells[i]
	if !v.Valid {
		return ""
	}
	switch c.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	default:
		return v.Text
	}
}

// Float returns cell i as a float64. Text cells are parsed; ok is false for
// missing or unparseable cells.
func (c *Column) Float(i int) (float64, bool) {
	v := c.cells[i]
	if !v.Valid {
		return math.NaN(), false
	}
	switch c.Kind {
	case KindInteger:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return math.NaN(), false
		}
		return f, true
	}
}

// Floats returns the column as float64 values with NaN for missing cells.
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.cells))
	for i := range c.cells {
		out[i], _ = c.Float(i)
	}
	return out
}

// AllMissing reports whether the column has no present cells.
func (c *Column) AllMissing() bool {
	for _, v := range c.cells {
		if v.Valid {
			return false
		}
	}
	return true
}

// Equal reports whether two cells of this column hold the same present value.
func (c *Column) Equal(i, j int) bool {
	a, b := c.cells[i], c.cells[j]
	if !a.Valid || !b.Valid {
		return false
	}
	switch c.Kind {
	case KindInteger:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	default:
		return a.Text == b.Text
	}
}

func (c *Column) clone() *Column {
	cells := make([]Value, len(c.cells))
	copy(cells, c.cells)
	return &Column{Name: c.Name, Kind: c.Kind, cells: cells}
}

// Dataset is an ordered set of uniquely named, equal-length columns.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewDataset returns an empty dataset with the given row count.
func NewDataset(rows int) *Dataset {
	return &Dataset{index: make(map[string]int), rows: rows}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool {
	return d == nil || d.rows == 0 || len(d.columns) == 0
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order.
func (d *Dataset) Columns() []*Column {
	if d == nil {
		return nil
	}
	return d.columns
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (*Column, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Has reports whether a column with the exact name exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.Column(name)
	return ok
}

// Add appends a column. The name must be new and the length must match.
func (d *Dataset) Add(c *Column) error {
	if _, ok := d.index[c.Name]; ok {
		return fmt.Errorf("duplicate column %q", c.Name)
	}
	if c.Len() != d.rows {
		return fmt.Errorf("column %q has %d rows, dataset has %d", c.Name, c.Len(), d.rows)
	}
	d.index[c.Name] = len(d.columns)
	d.columns = append(d.columns, c)
	return nil
}

// Set replaces a column of the same name in place or appends it.
func (d *Dataset) Set(c *Column) error {
	if c.Len() != d.rows {
		return fmt.Errorf("column %q has %d rows, dataset has %d", c.Name, c.Len(), d.rows)
	}
	if i, ok := d.index[c.Name]; ok {
		d.columns[i] = c
		return nil
	}
	d.index[c.Name] = len(d.columns)
	d.columns = append(d.columns, c)
	return nil
}

// Rename changes a column name. Renaming onto an existing name replaces
// that column.
func (d *Dataset) Rename(from, to string) {
	i, ok := d.index[from]
	if !ok || from == to {
		return
	}
	if _, taken := d.index[to]; taken {
		d.Drop(to)
		i = d.index[from]
	}
	c := d.columns[i].clone()
	c.Name = to
	d.columns[i] = c
	delete(d.index, from)
	d.index[to] = i
}

// Drop removes a column if present.
func (d *Dataset) Drop(name string) {
	i, ok := d.index[name]
	if !ok {
		return
	}
	d.columns = append(d.columns[:i], d.columns[i+1:]...)
	d.reindex()
}

func (d *Dataset) reindex() {
	d.index = make(map[string]int, len(d.columns))
	for i, c := range d.columns {
		d.index[c.Name] = i
	}
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	out := NewDataset(d.Len())
	for _, c := range d.Columns() {
		out.columns = append(out.columns, c.clone())
	}
	out.reindex()
	return out
}

// Filter returns a new dataset with the rows for which keep returns true.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	rows := make([]int, 0, d.Len())
	for i := 0; i < d.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return d.Take(rows)
}

// Take returns a new dataset holding the given rows in the given order.
func (d *Dataset) Take(rows []int) *Dataset {
	out := NewDataset(len(rows))
	for _, c := range d.Columns() {
		cells := make([]Value, len(rows))
		for j, r := range rows {
			cells[j] = c.cells[r]
		}
		out.columns = append(out.columns, NewColumn(c.Name, c.Kind, cells))
	}
	out.reindex()
	return out
}

// Concat stacks datasets vertically. The result holds the union of columns
// in first-seen order; rows from a part lacking a column are missing there.
// A column whose kind differs across parts is widened to text, unless the
// kinds are integer and float, which widen to float.
func Concat(parts ...*Dataset) *Dataset {
	total := 0
	var order []string
	kinds := make(map[string]Kind)
	for _, p := range parts {
		total += p.Len()
		for _, c := range p.Columns() {
			k, seen := kinds[c.Name]
			if !seen {
				order = append(order, c.Name)
				kinds[c.Name] = c.Kind
				continue
			}
			kinds[c.Name] = widen(k, c.Kind)
		}
	}

	out := NewDataset(total)
	for _, name := range order {
		kind := kinds[name]
		cells := make([]Value, 0, total)
		for _, p := range parts {
			c, ok := p.Column(name)
			if !ok {
				cells = append(cells, make([]Value, p.Len())...)
				continue
			}
			for i := 0; i < c.Len(); i++ {
				cells = append(cells, convertCell(c, i, kind))
			}
		}
		out.columns = append(out.columns, NewColumn(name, kind, cells))
	}
	out.reindex()
	return out
}

func widen(a, b Kind) Kind {
	if a == b {
		return a
	}
	if a != KindText && b != KindText {
		return KindFloat
	}
	return KindText
}

func convertCell(c *Column, i int, to Kind) Value {
	v := c.cells[i]
	if !v.Valid || c.Kind == to {
		return v
	}
	switch to {
	case KindFloat:
		f, _ := c.Float(i)
		return FloatValue(f)
	case KindText:
		return TextValue(c.Text(i))
	default:
		f, ok := c.Float(i)
		if !ok || f != math.Trunc(f) {
			return Missing
		}
		return IntValue(int64(f))
	}
}
