package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/dssat-eval-service/internal/domain"
	"github.com/spf13/cobra"
)

func newCropsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "crops",
		Short: "List crops from DETAIL.CDE with their data directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			crops, err := a.catalog.Crops(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tDIRECTORY")
			for _, c := range crops {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Code, c.Name, c.Directory)
			}
			return w.Flush()
		},
	}
}

func newExperimentsCmd(a *app) *cobra.Command {
	var outputs bool
	cmd := &cobra.Command{
		Use:   "experiments CROP",
		Short: "List experiment files of a crop",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crop, err := a.catalog.Crop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			if outputs {
				files, err := a.catalog.OutputFiles(crop)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "OUTPUT")
				for _, f := range files {
					fmt.Fprintln(w, f)
				}
				return w.Flush()
			}

			exps, err := a.catalog.Experiments(crop)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "FILE\tTITLE")
			for _, e := range exps {
				fmt.Fprintf(w, "%s\t%s\n", e.File, e.Title)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&outputs, "outputs", false, "list *.OUT simulation output files instead")
	return cmd
}

func newTreatmentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "treatments CROP EXPERIMENT",
		Short: "List the treatments of an experiment file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			crop, err := a.catalog.Crop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			trts, err := a.catalog.Treatments(crop, args[1])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRT\tNAME")
			for _, t := range trts {
				fmt.Fprintf(w, "%s\t%s\n", t.Number, t.Name)
			}
			return w.Flush()
		},
	}
}

func newVariablesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "variables CROP",
		Short: "List EVALUATE.OUT variables and their simulated/measured pairs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crop, err := a.catalog.Crop(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			d := a.store.Evaluate(crop.Path("EVALUATE.OUT"))
			if d.Empty() {
				return fmt.Errorf("no data in %s", crop.Path("EVALUATE.OUT"))
			}
			dict := a.codes.Codes()
			pairs := domain.PairSimulatedObserved(d, dict, a.logger)
			paired := make(map[string]string, len(pairs)*2)
			for _, p := range pairs {
				paired[p.Simulated] = p.Measured
				paired[p.Measured] = p.Simulated
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tLABEL\tPAIR")
			for _, v := range domain.ListEvaluateVariables(d, dict) {
				pair := paired[v.Code]
				if pair == "" {
					pair = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", v.Code, strings.TrimSpace(v.Label), pair)
			}
			return w.Flush()
		},
	}
}
