// Package testutil builds throwaway DSSAT installations for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixture names inside the maize directory.
const (
	CropName      = "Maize"
	CropCode      = "MZ"
	Experiment    = "UFGA8201.MZX"
	ObservedFile  = "UFGA8201.MZT"
	PlantGrowth   = "PlantGro.OUT"
	EvaluateFile  = "EVALUATE.OUT"
	ExecutableExe = "DSCSM048.EXE"
)

// Install is a minimal DSSAT tree: DETAIL.CDE, DSSATPRO.V48 and DATA.CDE in
// Base, plus a Maize directory with one experiment, its observed data, a
// two-treatment PlantGro.OUT and an EVALUATE.OUT.
type Install struct {
	Base     string
	MaizeDir string
	DataCDE  string
}

// NewInstall writes the fixture tree under a fresh temp directory.
func NewInstall(t testing.TB) Install {
	t.Helper()
	base := t.TempDir()
	maize := filepath.Join(base, CropName)
	require.NoError(t, os.MkdirAll(maize, 0o755))

	in := Install{Base: base, MaizeDir: maize, DataCDE: filepath.Join(base, "DATA.CDE")}

	WriteLines(t, filepath.Join(base, "DETAIL.CDE"), DetailCDE()...)
	WriteLines(t, filepath.Join(base, "DSSATPRO.V48"),
		"WED    "+filepath.Join(base, "Weather"),
		"MZD    "+maize,
		"SBD    "+filepath.Join(base, "Soybean"),
	)
	WriteLines(t, in.DataCDE, DataCDE()...)
	WriteLines(t, filepath.Join(maize, Experiment), ExperimentFile()...)
	WriteLines(t, filepath.Join(maize, ObservedFile), ObservedData()...)
	WriteLines(t, filepath.Join(maize, PlantGrowth), PlantGrowthOutput()...)
	WriteLines(t, filepath.Join(maize, EvaluateFile), EvaluateOutput()...)
	return in
}

// WriteLines writes lines joined by CRLF, the way DSSAT writes them.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\r\n")+"\r\n"), 0o644))
}

// WriteScript writes an executable shell script.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
}

// DetailCDE lists Maize and Soybean.
func DetailCDE() []string {
	return []string{
		"*Weather Station Codes",
		"@CDE    STATION",
		"UFGA    Gainesville",
		"",
		"*Crop and Weed Species",
		"@CDE    CROP",
		fmt.Sprintf("%-8s%s", "MZ", CropName),
		fmt.Sprintf("%-8s%s", "SBGRO", "Soybean"),
		"",
		"*Pests",
	}
}

// DataCDE describes CWAD, LAID and HWAM.
func DataCDE() []string {
	code := func(c, label, desc string) string { return fmt.Sprintf("%-6s %-13s %s", c, label, desc) }
	return []string{
		"!DSSAT variable codes",
		"*SIMULATION OUTPUT",
		"@CDE   LABEL         DESCRIPTION.....",
		code("CWAD", "Tops wt", "Tops weight (kg [dm]/ha)"),
		code("LAID", "LAI", "Leaf area index"),
		code("HWAM", "Yield", "Yield at harvest maturity (kg [dm]/ha)"),
	}
}

// ExperimentFile holds two treatments.
func ExperimentFile() []string {
	trt := func(n, name string) string {
		return fmt.Sprintf("%2s 1 0 0 %-27s%s", n, name, " 1  1  0  1  1  1  1  0  0  0  0  1  1")
	}
	return []string{
		"$EXPERIMENTS",
		"*EXP.DETAILS: UFGA8201MZ N X IRRIG, GAINESVILLE",
		"",
		"*TREATMENTS                        -------------FACTOR LEVELS------------",
		"@N R O C TNAME.................... CU FL SA IC MP MI MF MR MC MT ME MH SM",
		trt("1", "IRRIGATED, FULL NITROGEN"),
		trt("2", "RAINFED"),
		"",
		"*CULTIVARS",
		"@C CR INGENO CNAME",
		" 1 MZ IB0035 McCurdy 84aa",
	}
}

// ObservedData has CWAD and LAID for both treatments on 1982-03-08 and
// 1982-03-18. One LAID value is the -99 sentinel.
func ObservedData() []string {
	return []string{
		"*EXP. DATA (T): UFGA8201MZ N X IRRIG",
		"",
		"@TRNO DATE   CWAD  LAID",
		"    1 82067   110  0.55",
		"    1 82077   290   -99",
		"! second treatment",
		"    2 82067    70  0.40",
		"    2 82077   220  0.80",
	}
}

// PlantGrowthOutput simulates both treatments on DOY 57, 67 and 77 of 1982.
func PlantGrowthOutput() []string {
	block := func(n, name string, cwad, laid [3]string) []string {
		return []string{
			"",
			fmt.Sprintf("*RUN   %s        : %s", n, name),
			fmt.Sprintf(" TREATMENT  %s   %s", n, name),
			"",
			"@YEAR DOY   DAS   DAP   CWAD   LAID",
			fmt.Sprintf(" 1982  57     0     0 %6s %6s", cwad[0], laid[0]),
			fmt.Sprintf(" 1982  67    10    10 %6s %6s", cwad[1], laid[1]),
			fmt.Sprintf(" 1982  77    20    20 %6s %6s", cwad[2], laid[2]),
		}
	}
	lines := []string{"*DSSAT Cropping System Model Ver. 4.8.0.000"}
	lines = append(lines, block("1", "IRRIGATED, FULL NITROGEN", [3]string{"0", "100", "300"}, [3]string{"0.00", "0.50", "1.20"})...)
	lines = append(lines, block("2", "RAINFED", [3]string{"0", "80", "200"}, [3]string{"0.00", "0.40", "0.90"})...)
	return lines
}

// EvaluateOutput has one useful pair (HWAM), one identical pair (CWAM) and
// one pair with no measurements (LAIX).
func EvaluateOutput() []string {
	return []string{
		"*EVALUATION : UFGA8201MZ N X IRRIG",
		"",
		"@RUN EXCODE       TRNO   HWAMS  HWAMM   CWAMS  CWAMM  LAIXS  LAIXM",
		"   1 UFGA8201MZ      1    8000   8500   15000  15000   3.50    -99",
		"   2 UFGA8201MZ      2    5000   4600   11000  11000   2.80    -99",
	}
}
