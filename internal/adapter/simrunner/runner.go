// Package simrunner writes DSSAT batch files and runs the simulation
// executable against them.
package simrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
)

// simulationFailedStatus is the exit status DSSAT uses for input problems.
const simulationFailedStatus = 99

// Result is the outcome of a successful run.
type Result struct {
	BatchFile string        `json:"batch_file"`
	Stdout    string        `json:"stdout"`
	Duration  time.Duration `json:"duration"`
}

// Runner executes batch simulations.
type Runner struct {
	logger *slog.Logger
}

// New creates a Runner.
func New(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// WriteBatchFile renders the batch file for req and writes it into the crop
// directory. It returns the file path.
func (r *Runner) WriteBatchFile(req domain.BatchRequest) (string, error) {
	content, err := domain.BuildBatchFile(req)
	if err != nil {
		return "", err
	}
	dir := filepath.Clean(strings.TrimSpace(req.Crop.Directory))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", domain.ErrWorkDirNotFound, dir)
	}
	path := filepath.Join(dir, domain.BatchFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write batch file: %w", err)
	}
	r.logger.Info("batch file written", "path", path, "treatments", len(req.Treatments))
	return path, nil
}

// Run writes the batch file and executes "<executable> B BatchFile.v48" in
// the crop directory. Exit status 99 yields domain.ErrSimulationFailed; any
// other non-zero status yields an error carrying stderr.
func (r *Runner) Run(ctx context.Context, req domain.BatchRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if _, err := os.Stat(req.Executable); err != nil {
		return Result{}, fmt.Errorf("%w: %s", domain.ErrExecutableNotFound, req.Executable)
	}
	batch, err := r.WriteBatchFile(req)
	if err != nil {
		return Result{}, err
	}

	cmd := exec.CommandContext(ctx, req.Executable, "B", domain.BatchFileName)
	cmd.Dir = filepath.Dir(batch)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Info("running simulation", "executable", req.Executable, "dir", cmd.Dir, "experiment", req.Experiment)
	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("DSSAT execution failed: %w", err)
		}
		code := exitErr.ExitCode()
		r.logger.Error("simulation exited with error", "code", code, "duration", elapsed)
		if code == simulationFailedStatus {
			return Result{}, domain.ErrSimulationFailed
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = fmt.Sprintf("Unknown error (code %d)", code)
		}
		return Result{}, fmt.Errorf("DSSAT execution failed: %s", msg)
	}

	r.logger.Info("simulation finished", "duration", elapsed)
	return Result{BatchFile: batch, Stdout: stdout.String(), Duration: elapsed}, nil
}
