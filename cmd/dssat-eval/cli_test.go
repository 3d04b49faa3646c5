package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/couchcryptid/dssat-eval-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the CLI against in with the given arguments.
func execute(t *testing.T, in testutil.Install, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("DSSAT_DATA_CDE", "")
	t.Setenv("DSSAT_EXECUTABLE", testutil.ExecutableExe)

	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(append([]string{"--dssat-base", in.Base, "--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeJob(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const maizeJob = `
crop: Maize
experiment: UFGA8201.MZX
output_files: [PlantGro.OUT]
y_vars: [CWAD, LAID]
`

func TestLoadJob_Defaults(t *testing.T) {
	job, err := loadJob(writeJob(t, maizeJob))
	require.NoError(t, err)
	assert.Equal(t, "Maize", job.Request.Crop)
	assert.Equal(t, "DATE", job.Request.XVar)
	assert.Equal(t, []string{"CWAD", "LAID"}, job.Request.YVars)

	empty, err := loadJob("")
	require.NoError(t, err)
	assert.Equal(t, "DATE", empty.Request.XVar)

	_, err = loadJob(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCropsCommand(t *testing.T) {
	in := testutil.NewInstall(t)
	out, _, err := execute(t, in, "crops")
	require.NoError(t, err)
	assert.Contains(t, out, "MZ")
	assert.Contains(t, out, in.MaizeDir)
}

func TestBrowseCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"experiments", []string{"experiments", "maize"}, []string{"UFGA8201.MZX", "N X IRRIG, GAINESVILLE"}},
		{"outputs", []string{"experiments", "Maize", "--outputs"}, []string{"PlantGro.OUT", "EVALUATE.OUT"}},
		{"treatments", []string{"treatments", "Maize", "UFGA8201.MZX"}, []string{"IRRIGATED, FULL NITROGEN", "RAINFED"}},
		{"variables", []string{"variables", "Maize"}, []string{"HWAMS", "HWAMM", "LAIXS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := testutil.NewInstall(t)
			out, _, err := execute(t, in, tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestBrowseCommands_UnknownCrop(t *testing.T) {
	in := testutil.NewInstall(t)
	_, stderr, err := execute(t, in, "treatments", "Rice", "X.RIX")
	require.ErrorIs(t, err, domain.ErrUnknownCrop)
	assert.Contains(t, stderr, "unknown crop")
}

func TestEvaluateCommand_Job(t *testing.T) {
	in := testutil.NewInstall(t)
	out, _, err := execute(t, in, "evaluate", "--job", writeJob(t, maizeJob))
	require.NoError(t, err)

	var report domain.EvaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Maize", report.Crop)
	assert.Len(t, report.Records, 4)
	assert.Empty(t, report.Warnings)
}

func TestEvaluateCommand_FlagsOverrideJob(t *testing.T) {
	in := testutil.NewInstall(t)
	out, _, err := execute(t, in, "evaluate",
		"--job", writeJob(t, maizeJob),
		"--y", "CWAD",
		"--treatment", "1",
		"--include-evaluate",
	)
	require.NoError(t, err)

	var report domain.EvaluationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Records, 1)
	assert.Equal(t, "CWAD", report.Records[0].Variable)
	require.Len(t, report.EvaluateRecords, 1)
	assert.Equal(t, "HWAM", report.EvaluateRecords[0].Variable)
}

func TestEvaluateCommand_InvalidRequest(t *testing.T) {
	in := testutil.NewInstall(t)
	_, _, err := execute(t, in, "evaluate", "--crop", "Maize")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestRunCommand(t *testing.T) {
	in := testutil.NewInstall(t)
	exe := filepath.Join(in.Base, testutil.ExecutableExe)
	testutil.WriteScript(t, exe, `[ "$1" = "B" ] && echo "simulated"`)

	out, _, err := execute(t, in, "run", "--job", writeJob(t, maizeJob))
	require.NoError(t, err)

	var got struct {
		Simulation struct {
			BatchFile string `json:"batch_file"`
			Stdout    string `json:"stdout"`
		} `json:"simulation"`
		Report *domain.EvaluationReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "simulated\n", got.Simulation.Stdout)
	assert.Equal(t, filepath.Join(in.MaizeDir, domain.BatchFileName), got.Simulation.BatchFile)
	require.NotNil(t, got.Report)
	assert.Len(t, got.Report.Records, 4)

	batch, err := os.ReadFile(got.Simulation.BatchFile)
	require.NoError(t, err)
	assert.Contains(t, string(batch), "! ExpNo        : 2")
}

func TestRunCommand_SimulationFailed(t *testing.T) {
	in := testutil.NewInstall(t)
	testutil.WriteScript(t, filepath.Join(in.Base, testutil.ExecutableExe), "exit 99")

	_, _, err := execute(t, in, "run", "--crop", "Maize", "--experiment", testutil.Experiment, "--treatment", "1")
	require.ErrorIs(t, err, domain.ErrSimulationFailed)
}

func TestRunCommand_MissingExperiment(t *testing.T) {
	in := testutil.NewInstall(t)
	_, _, err := execute(t, in, "run", "--crop", "Maize")
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestValidateCommand(t *testing.T) {
	in := testutil.NewInstall(t)
	testutil.WriteScript(t, filepath.Join(in.Base, testutil.ExecutableExe), "exit 0")

	out, _, err := execute(t, in, "validate", "--crop", "Maize")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS  installation")
	assert.Contains(t, out, "PASS  crop directory Maize")
	assert.NotContains(t, out, "FAIL")
}

func TestValidateCommand_Failures(t *testing.T) {
	in := testutil.NewInstall(t)
	require.NoError(t, os.Remove(in.DataCDE))

	out, _, err := execute(t, in, "validate", "--crop", "Soybean")
	require.Error(t, err)
	assert.Contains(t, out, "FAIL  installation")
	assert.Contains(t, out, testutil.ExecutableExe)
	assert.Contains(t, out, "FAIL  variable codes")
	assert.Contains(t, out, "FAIL  crop directory Soybean")
	assert.Contains(t, out, "PASS  crop catalog")
}
