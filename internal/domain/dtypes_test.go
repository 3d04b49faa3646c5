package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardizeDtypes(t *testing.T) {
	tests := []struct {
		name   string
		column string
		values []string
		want   Kind
	}{
		{name: "whole numbers", column: "CWAD", values: []string{"1", "2", "3"}, want: KindInteger},
		{name: "decimals", column: "LAID", values: []string{"1.5", "2", "3"}, want: KindFloat},
		{name: "float-like whole numbers", column: "DAS", values: []string{"1.0", "2.0"}, want: KindInteger},
		{name: "mostly text", column: "NOTE", values: []string{"1", "2", "abc", "def", "ghi", "jkl", "mno"}, want: KindText},
		{name: "reserved year", column: "YEAR", values: []string{"1991", "1992"}, want: KindText},
		{name: "reserved doy", column: "DOY", values: []string{"1", "2"}, want: KindText},
		{name: "reserved treatment", column: "TRT", values: []string{"1", "2"}, want: KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := textDataset(map[string][]string{tt.column: tt.values}, tt.column)
			out := StandardizeDtypes(d, DefaultNumericTolerance)
			c, ok := out.Column(tt.column)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.Kind)
		})
	}
}

func TestStandardizeDtypes_DropsEmptyColumns(t *testing.T) {
	d := textDataset(map[string][]string{
		"A": {"1", "2"},
		"B": {"", ""},
	}, "A", "B")

	out := StandardizeDtypes(d, DefaultNumericTolerance)
	assert.Equal(t, []string{"A"}, out.Names())
}

func TestStandardizeDtypes_Tolerance(t *testing.T) {
	values := make([]string, 20)
	for i := range values {
		values[i] = "5"
	}
	values[3] = "bad"

	d := textDataset(map[string][]string{"X": values}, "X")
	out := StandardizeDtypes(d, DefaultNumericTolerance)
	c, _ := out.Column("X")
	assert.Equal(t, KindInteger, c.Kind, "5% failures stays numeric")
	assert.True(t, c.IsMissing(3))

	values[4] = "worse"
	d = textDataset(map[string][]string{"X": values}, "X")
	out = StandardizeDtypes(d, DefaultNumericTolerance)
	c, _ = out.Column("X")
	assert.Equal(t, KindText, c.Kind, "10% failures is not below tolerance")
}

func TestStandardizeDtypes_ToleranceIgnoresMissing(t *testing.T) {
	values := make([]string, 20)
	copy(values, []string{"1", "2", "3", "4", "abc"})

	d := textDataset(map[string][]string{"X": values}, "X")
	out := StandardizeDtypes(d, DefaultNumericTolerance)
	c, _ := out.Column("X")
	assert.Equal(t, KindText, c.Kind, "1 of 5 present values fails to parse")
	assert.Equal(t, "abc", c.Text(4))
	assert.True(t, c.IsMissing(10))
}

func TestStandardizeDtypes_HugeWholeNumbers(t *testing.T) {
	d := textDataset(map[string][]string{"X": {"1", "1e19"}}, "X")
	out := StandardizeDtypes(d, DefaultNumericTolerance)
	c, _ := out.Column("X")
	require.Equal(t, KindFloat, c.Kind)
	f, ok := c.Float(1)
	require.True(t, ok)
	assert.InDelta(t, 1e19, f, 1)
}

func TestReplaceSentinels(t *testing.T) {
	d := textDataset(map[string][]string{
		"A": {"-99", "-99.0", "-99.9", "-99.99", "-99.", "12"},
	}, "A")

	out := ReplaceSentinels(d)
	c, _ := out.Column("A")
	for i := 0; i < 5; i++ {
		assert.True(t, c.IsMissing(i), "row %d", i)
	}
	assert.Equal(t, "12", c.Text(5))

	orig, _ := d.Column("A")
	assert.False(t, orig.IsMissing(0), "input is not modified")
}

func TestCoerceNumeric(t *testing.T) {
	d := NewDataset(3)
	require.NoError(t, d.Add(NewIntColumn("CWAD", []int64{10, -99, 30})))

	out := CoerceNumeric(d, "CWAD", "ABSENT")
	c, _ := out.Column("CWAD")
	assert.Equal(t, KindFloat, c.Kind)
	assert.True(t, c.IsMissing(1))
	v, _ := c.Float(2)
	assert.InDelta(t, 30.0, v, 1e-9)
}
