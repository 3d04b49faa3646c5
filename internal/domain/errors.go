package domain

import "errors"

var (
	// ErrInvalidRequest marks an evaluation request that cannot be processed.
	ErrInvalidRequest = errors.New("invalid evaluation request")
	// ErrMissingField marks a batch or run request lacking a required field.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidTreatment marks a treatment number that is not an integer.
	ErrInvalidTreatment = errors.New("invalid treatment number")
	// ErrUnknownCrop marks a crop name absent from the crop catalog.
	ErrUnknownCrop = errors.New("unknown crop")
	// ErrWorkDirNotFound marks a crop directory that does not exist.
	ErrWorkDirNotFound = errors.New("crop directory not found")
	// ErrExperimentNotFound marks an experiment file that does not exist.
	ErrExperimentNotFound = errors.New("experiment file not found")
	// ErrExecutableNotFound marks a simulation executable that does not exist.
	ErrExecutableNotFound = errors.New("simulation executable not found")
	// ErrSimulationFailed marks a simulation run that exited with status 99.
	ErrSimulationFailed = errors.New("DSSAT simulation failed. Please verify:\n" +
		"1. Input files are properly formatted\n" +
		"2. All required weather files are present\n" +
		"3. Cultivation and treatment parameters are valid")
)
