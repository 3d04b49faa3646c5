// Package domain models DSSAT crop simulation output and the comparison of
// simulated series against field observations.
//
// # Data Sources
//
// DSSAT writes whitespace-delimited, fixed-layout text files. The files this
// package understands are:
//
//	*.OUT        simulation output (PlantGro.OUT, SoilWat.OUT, ...)
//	*.xxT        observed time-series data for crop xx (UFGA8201.MZT)
//	*.xxX        experiment definition, of which only *TREATMENTS is read
//	EVALUATE.OUT end-of-season simulated vs measured summary
//	DATA.CDE     variable code dictionary
//	DETAIL.CDE   crop code table
//	DSSATPRO.V48 crop data directories
//
// # DSSAT File Conventions
//
// Line prefixes:
//
//	"@"  header line; the remaining tokens name the columns.
//	"*"  section marker or comment; ends a run of data rows.
//	"!"  comment (DATA.CDE, observed files).
//
// Simulation output repeats a preamble per run. A line whose trimmed text
// starts with TREATMENT (any case) opens a block; the token after the
// keyword is the treatment number, stored as TRT.
//
// Fixed columns:
//
//	Experiment file treatments: number [0:3], name [9:36].
//	DATA.CDE: code [0:6], label [7:20], description [21:70].
//	DETAIL.CDE crops: code [0:8] (first two characters kept), name [8:72].
//
// Missing values:
//
//	-99, -99., -99.0, -99.9 and -99.99 mean "not measured". They become
//	missing cells and never take part in statistics.
//
// Dates:
//
//	Either a YEAR/DOY pair, where either may be written as "1991.0", or a
//	five-digit YYDDD code. Two-digit years up to 30 are 20xx, the rest 19xx.
//	Stored DATE cells are ISO "YYYY-MM-DD" text.
//
// # Type Inference
//
// Parsed columns start as text. [StandardizeDtypes] drops empty columns,
// keeps YEAR, DOY, DATE and TRT as text, and turns columns with fewer than
// 10% unparseable values into integer or float columns.
//
// # Agreement Statistics
//
// [ComputeAgreement] reports n, RMSE, NRMSE (RMSE as a percentage of the
// observed mean) and Willmott's index of agreement d:
//
//	d = 1 - Σ(o-s)² / Σ(|s-ō| + |o-ō|)²
//
// NRMSE is null when the observed mean is zero; d is null when its
// denominator is zero.
package domain
