package simrunner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRequest(t *testing.T, script string) domain.BatchRequest {
	t.Helper()
	in := testutil.NewInstall(t)
	exe := filepath.Join(in.Base, testutil.ExecutableExe)
	testutil.WriteScript(t, exe, script)
	return domain.BatchRequest{
		Crop:       domain.Crop{Code: testutil.CropCode, Name: testutil.CropName, Directory: in.MaizeDir},
		Executable: exe,
		Experiment: testutil.Experiment,
		Treatments: []string{"1", "2"},
	}
}

func TestRunner_WriteBatchFile(t *testing.T) {
	req := newRequest(t, "exit 0")

	path, err := New(discardLogger()).WriteBatchFile(req)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(req.Crop.Directory, "BatchFile.v48"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "$BATCH(MZ)\n"))
	assert.Contains(t, string(data), "! ExpNo        : 2")
}

func TestRunner_Run(t *testing.T) {
	req := newRequest(t, `[ "$1" = "B" ] && [ -f "$2" ] && echo "RUN 1 done"`)

	res, err := New(discardLogger()).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "RUN 1 done\n", res.Stdout)
	assert.Equal(t, filepath.Join(req.Crop.Directory, domain.BatchFileName), res.BatchFile)
}

func TestRunner_RunFailures(t *testing.T) {
	tests := []struct {
		name   string
		script string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "status 99",
			script: "exit 99",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, domain.ErrSimulationFailed)
				assert.Contains(t, err.Error(), "All required weather files are present")
			},
		},
		{
			name:   "stderr",
			script: "echo 'weather file missing' >&2; exit 2",
			check: func(t *testing.T, err error) {
				assert.False(t, errors.Is(err, domain.ErrSimulationFailed))
				assert.EqualError(t, err, "DSSAT execution failed: weather file missing")
			},
		},
		{
			name:   "silent failure",
			script: "exit 3",
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "DSSAT execution failed: Unknown error (code 3)")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(t, tt.script)
			_, err := New(discardLogger()).Run(context.Background(), req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRunner_Preconditions(t *testing.T) {
	r := New(discardLogger())

	req := newRequest(t, "exit 0")
	req.Executable = filepath.Join(t.TempDir(), "missing.exe")
	_, err := r.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)

	req = newRequest(t, "exit 0")
	req.Crop.Directory = filepath.Join(t.TempDir(), "gone")
	_, err = r.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrWorkDirNotFound)

	req = newRequest(t, "exit 0")
	req.Treatments = []string{"x"}
	_, err = r.Run(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidTreatment)
}
