package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/creasty/defaults"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Job is the YAML document accepted by evaluate and run. The evaluation
// request fields sit at the top level:
//
//	crop: Maize
//	experiment: UFGA8201.MZX
//	output_files: [PlantGro.OUT]
//	y_vars: [CWAD, LAID]
//	include_evaluate: true
type Job struct {
	Request domain.EvaluationRequest `yaml:",inline"`

	// Executable overrides DSSAT_EXECUTABLE for the run command.
	Executable string `yaml:"executable"`
}

// loadJob reads a job file. An empty path yields a job holding only defaults.
func loadJob(path string) (*Job, error) {
	job := &Job{}
	if err := defaults.Set(job); err != nil {
		return nil, err
	}
	if path == "" {
		return job, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-provided job file
	if err != nil {
		return nil, fmt.Errorf("read job: %w", err)
	}
	if err := yaml.Unmarshal(data, job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", path, err)
	}
	return job, nil
}

// requestFlags lets individual request fields be given or overridden on the
// command line.
type requestFlags struct {
	job             string
	crop            string
	experiment      string
	outputs         []string
	xVar            string
	yVars           []string
	treatments      []string
	includeEvaluate bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.job, "job", "", "YAML job file")
	fs.StringVar(&f.crop, "crop", "", "crop name as listed in DETAIL.CDE")
	fs.StringVar(&f.experiment, "experiment", "", "experiment file, e.g. UFGA8201.MZX")
	fs.StringSliceVar(&f.outputs, "output", nil, "simulation output file (repeatable)")
	fs.StringVar(&f.xVar, "x", "", "x-axis variable (default DATE)")
	fs.StringSliceVar(&f.yVars, "y", nil, "variable to evaluate (repeatable)")
	fs.StringSliceVar(&f.treatments, "treatment", nil, "treatment number to include (repeatable)")
	fs.BoolVar(&f.includeEvaluate, "include-evaluate", false, "also evaluate EVALUATE.OUT pairs")
}

// load reads the job file, if any, and applies every flag that was set.
func (f *requestFlags) load(cmd *cobra.Command) (*Job, error) {
	job, err := loadJob(f.job)
	if err != nil {
		return nil, err
	}
	req := &job.Request
	fs := cmd.Flags()
	if fs.Changed("crop") {
		req.Crop = f.crop
	}
	if fs.Changed("experiment") {
		req.Experiment = f.experiment
	}
	if fs.Changed("output") {
		req.OutputFiles = f.outputs
	}
	if fs.Changed("x") {
		req.XVar = f.xVar
	}
	if fs.Changed("y") {
		req.YVars = f.yVars
	}
	if fs.Changed("treatment") {
		req.Treatments = f.treatments
	}
	if fs.Changed("include-evaluate") {
		req.IncludeEvaluate = f.includeEvaluate
	}
	return job, nil
}
