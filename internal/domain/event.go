package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// EvaluationRequest asks for simulated output files of one experiment to be
// compared against its observed data. It is read from Kafka as JSON and from
// CLI job files as YAML.
type EvaluationRequest struct {
	ID              string   `json:"id,omitempty" yaml:"id"`
	Crop            string   `json:"crop" yaml:"crop"`
	Experiment      string   `json:"experiment" yaml:"experiment"`
	OutputFiles     []string `json:"output_files" yaml:"output_files"`
	XVar            string   `json:"x_var,omitempty" yaml:"x_var" default:"DATE"`
	YVars           []string `json:"y_vars" yaml:"y_vars"`
	Treatments      []string `json:"treatments,omitempty" yaml:"treatments"`
	IncludeEvaluate bool     `json:"include_evaluate,omitempty" yaml:"include_evaluate"`
}

// Normalize upper-cases variable codes, defaults the axis to DATE and
// assigns an ID when none is set.
func (r EvaluationRequest) Normalize() EvaluationRequest {
	r.XVar = strings.ToUpper(strings.TrimSpace(r.XVar))
	if r.XVar == "" {
		r.XVar = "DATE"
	}
	ys := make([]string, 0, len(r.YVars))
	for _, y := range r.YVars {
		if y = strings.ToUpper(strings.TrimSpace(y)); y != "" {
			ys = append(ys, y)
		}
	}
	r.YVars = ys
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return r
}

// Validate reports the first missing field or unsafe file name.
func (r EvaluationRequest) Validate() error {
	switch {
	case r.Crop == "":
		return fmt.Errorf("%w: crop is required", ErrInvalidRequest)
	case r.Experiment == "" && len(r.OutputFiles) > 0:
		return fmt.Errorf("%w: experiment is required", ErrInvalidRequest)
	case len(r.OutputFiles) == 0 && !r.IncludeEvaluate:
		return fmt.Errorf("%w: output_files or include_evaluate is required", ErrInvalidRequest)
	case len(r.OutputFiles) > 0 && len(r.YVars) == 0:
		return fmt.Errorf("%w: y_vars is required", ErrInvalidRequest)
	}
	if r.Experiment != "" {
		if err := CheckFileName(r.Experiment); err != nil {
			return err
		}
	}
	for _, f := range r.OutputFiles {
		if err := CheckFileName(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseEvaluationRequest decodes, normalizes and validates a request from a
// raw message. The message key is used as ID when the payload has none.
func ParseEvaluationRequest(raw RawEvent) (EvaluationRequest, error) {
	var req EvaluationRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return EvaluationRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return EvaluationRequest{}, err
	}
	return req, nil
}

// EvaluationReport is the result published for one request.
type EvaluationReport struct {
	RequestID       string          `json:"request_id"`
	Crop            string          `json:"crop"`
	Experiment      string          `json:"experiment,omitempty"`
	XVar            string          `json:"x_var"`
	Records         []MetricsRecord `json:"records"`
	EvaluateRecords []MetricsRecord `json:"evaluate_records,omitempty"`
	Warnings        []string        `json:"warnings,omitempty"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// NewReport starts a report for req stamped with the current time.
func NewReport(req EvaluationRequest) EvaluationReport {
	return EvaluationReport{
		RequestID:   req.ID,
		Crop:        req.Crop,
		Experiment:  req.Experiment,
		XVar:        req.XVar,
		Records:     []MetricsRecord{},
		GeneratedAt: clock.Now().UTC(),
	}
}

// Warnf appends a formatted warning to the report.
func (r *EvaluationReport) Warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
