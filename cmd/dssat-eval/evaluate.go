package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/dssat-eval-service/internal/adapter/simrunner"
	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/spf13/cobra"
)

func newEvaluateCmd(a *app) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Compare simulation output with observed data",
		Long: `Evaluate parses the requested output files and the experiment's observed
data, joins them on DATE per treatment, and prints a JSON report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := flags.load(cmd)
			if err != nil {
				return err
			}
			report, err := a.evaluator.Evaluate(cmd.Context(), job.Request)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	flags.register(cmd)
	return cmd
}

// runOutput is printed by the run command.
type runOutput struct {
	Simulation simrunner.Result         `json:"simulation"`
	Report     *domain.EvaluationReport `json:"report,omitempty"`
}

func newRunCmd(a *app) *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch simulation, then evaluate its output",
		Long: `Run writes BatchFile.v48 for the job's experiment and treatments, runs
the DSSAT executable in the crop directory, and evaluates the result when the
job names output files or include_evaluate. Without treatments every
treatment of the experiment is simulated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job, err := flags.load(cmd)
			if err != nil {
				return err
			}
			return a.run(cmd, job)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) run(cmd *cobra.Command, job *Job) error {
	ctx := cmd.Context()
	req := job.Request
	if req.Crop == "" || req.Experiment == "" {
		return fmt.Errorf("%w: crop and experiment are required to run a simulation", domain.ErrInvalidRequest)
	}

	crop, err := a.catalog.Crop(ctx, req.Crop)
	if err != nil {
		return err
	}
	treatments := req.Treatments
	if len(treatments) == 0 {
		trts, err := a.catalog.Treatments(crop, req.Experiment)
		if err != nil {
			return err
		}
		for _, t := range trts {
			treatments = append(treatments, t.Number)
		}
	}

	exe := a.cfg.ExecutablePath()
	if job.Executable != "" {
		exe = job.Executable
	}

	res, err := simrunner.New(a.logger).Run(ctx, domain.BatchRequest{
		Crop:       crop,
		Executable: exe,
		Experiment: req.Experiment,
		Treatments: treatments,
	})
	if err != nil {
		return err
	}

	out := runOutput{Simulation: res}
	if len(req.OutputFiles) > 0 || req.IncludeEvaluate {
		report, err := a.evaluator.Evaluate(ctx, req)
		if err != nil {
			return err
		}
		out.Report = &report
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
