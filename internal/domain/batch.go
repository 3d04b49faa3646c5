package domain

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// BatchFileName is the batch file the simulation executable reads.
const BatchFileName = "BatchFile.v48"

const batchHeader = "@FILEX                                                                                        TRTNO     RP     SQ     OP     CO"

// BatchRequest describes one batch simulation run.
type BatchRequest struct {
	Crop       Crop
	Executable string
	Experiment string
	Treatments []string
}

// Validate checks that every field needed to render a batch file is set and
// that every treatment is an integer.
func (r BatchRequest) Validate() error {
	var missing []string
	if r.Crop.Name == "" && r.Crop.Code == "" {
		missing = append(missing, "crop")
	}
	if r.Executable == "" {
		missing = append(missing, "executable")
	}
	if r.Experiment == "" {
		missing = append(missing, "experiment")
	}
	if len(r.Treatments) == 0 {
		missing = append(missing, "treatments")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if err := CheckFileName(r.Experiment); err != nil {
		return err
	}
	if strings.TrimSpace(r.Crop.Directory) == "" {
		return fmt.Errorf("%w: no directory for crop %s", ErrWorkDirNotFound, r.Crop.Name)
	}
	for _, t := range r.Treatments {
		if _, err := strconv.Atoi(strings.TrimSpace(t)); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTreatment, t)
		}
	}
	return nil
}

// ExperimentPath is the experiment file inside the crop directory.
func (r BatchRequest) ExperimentPath() string {
	return r.Crop.Path(r.Experiment)
}

// BuildBatchFile renders the $BATCH file for r. Each treatment line holds the
// experiment path left-aligned in 90 columns, the treatment number
// right-aligned in 9, and the fixed RP/SQ/OP/CO flags.
func BuildBatchFile(r BatchRequest) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	dir := filepath.Clean(strings.TrimSpace(r.Crop.Directory))
	lines := []string{
		fmt.Sprintf("$BATCH(%s)", r.Crop.Code),
		"!",
		"! Directory    : " + dir,
		fmt.Sprintf("! Command Line : %s B %s", r.Executable, BatchFileName),
		"! Experiment   : " + r.Experiment,
		fmt.Sprintf("! ExpNo        : %d", len(r.Treatments)),
		"!",
		batchHeader,
	}
	path := r.ExperimentPath()
	for _, t := range r.Treatments {
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		lines = append(lines, fmt.Sprintf("%-90s%9d      1      0      0      0", path, n))
	}
	return strings.Join(lines, "\n"), nil
}
