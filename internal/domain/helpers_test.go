package domain

import (
	"io"
	"log/slog"
	"strings"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimPrefix(s, "\n"), "\n")
}

func testOptions() ParseOptions {
	return ParseOptions{Logger: discardLogger(), Source: "test"}
}

func textDataset(cols map[string][]string, order ...string) *Dataset {
	n := 0
	for _, v := range cols {
		n = len(v)
		break
	}
	d := NewDataset(n)
	for _, name := range order {
		if err := d.Add(NewTextColumn(name, cols[name])); err != nil {
			panic(err)
		}
	}
	return d
}
