package dssatfs

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    []string
	}{
		{name: "utf8 crlf", content: []byte("@TRNO DATE\r\n    1 82067\r\n"), want: []string{"@TRNO DATE", "    1 82067"}},
		{name: "byte order mark", content: []byte("\xef\xbb\xbf@YEAR DOY\n"), want: []string{"@YEAR DOY"}},
		{name: "latin1 fallback", content: []byte("*EXP.DETAILS: S\xe3o Paulo\n"), want: []string{"*EXP.DETAILS: São Paulo"}},
		{name: "no trailing newline", content: []byte("a\nb"), want: []string{"a", "b"}},
		{name: "empty", content: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "file.OUT")
			require.NoError(t, os.WriteFile(path, tt.content, 0o644))

			got, err := ReadLines(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadLines_Missing(t *testing.T) {
	_, err := ReadLines(filepath.Join(t.TempDir(), "nope.OUT"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
