package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func newValidateCmd(a *app) *cobra.Command {
	var cropName string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the DSSAT installation and, optionally, one crop's data folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			phases := a.validate(cmd, cropName)
			out := cmd.OutOrStdout()
			failed := 0
			for _, p := range phases {
				if p.passed() {
					fmt.Fprintf(out, "PASS  %s\n", p.name)
					continue
				}
				failed++
				fmt.Fprintf(out, "FAIL  %s\n", p.name)
				for _, e := range p.errors {
					fmt.Fprintf(out, "      - %s\n", e)
				}
			}
			if failed > 0 {
				return fmt.Errorf("validation failed: %d of %d phases", failed, len(phases))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cropName, "crop", "", "crop whose directory should be checked")
	return cmd
}

func (a *app) validate(cmd *cobra.Command, cropName string) []*phase {
	ctx := cmd.Context()

	install := &phase{name: "installation"}
	if err := a.catalog.CheckInstallation(a.cfg.Executable); err != nil {
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, e := range joined.Unwrap() {
				install.errorf("%v", e)
			}
		} else {
			install.errorf("%v", err)
		}
	}

	crops := &phase{name: "crop catalog"}
	list, err := a.catalog.Crops(ctx)
	switch {
	case err != nil:
		crops.errorf("%v", err)
	case len(list) == 0:
		crops.errorf("no crops found in DETAIL.CDE")
	}

	codes := &phase{name: "variable codes"}
	if err := a.codes.Reload(); err != nil {
		codes.errorf("%v", err)
	} else if len(a.codes.Codes()) == 0 {
		codes.errorf("no variable codes in %s", a.cfg.DataCDE)
	}

	phases := []*phase{install, crops, codes}
	if cropName == "" {
		return phases
	}

	folder := &phase{name: "crop directory " + cropName}
	phases = append(phases, folder)
	crop, err := a.catalog.Crop(ctx, cropName)
	if err != nil {
		folder.errorf("%v", err)
		return phases
	}
	exps, err := a.catalog.Experiments(crop)
	if err != nil {
		folder.errorf("%v", err)
		return phases
	}
	if len(exps) == 0 {
		folder.errorf("no *.%sX experiment files in %s", crop.Code, crop.Directory)
	}
	for _, e := range exps {
		if trts, err := a.catalog.Treatments(crop, e.File); err != nil || len(trts) == 0 {
			folder.errorf("%s: no treatments", e.File)
		}
	}
	return phases
}
