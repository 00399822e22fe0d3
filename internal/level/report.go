package level

import "fmt"

// Severity indicates how critical a validation finding is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Result is a single validation finding. Path points into the level file,
// e.g. "car_types[1].exit".
type Result struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path"`
	Value    any      `json:"value,omitempty"`
}

func (r Result) String() string {
	if r.Path == "" {
		return r.Message
	}
	return fmt.Sprintf("%s: %s", r.Path, r.Message)
}

// Report is the complete validation output for a level file.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []Result `json:"errors"`
	Warnings []Result `json:"warnings"`
	Info     []Result `json:"info"`
	Summary  string   `json:"summary"`
}

// NewReport creates an empty valid report.
func NewReport() *Report {
	r := &Report{
		Valid:    true,
		Errors:   []Result{},
		Warnings: []Result{},
		Info:     []Result{},
	}
	r.updateSummary()
	return r
}

// AddError adds an error result and marks the report invalid.
func (r *Report) AddError(path, format string, args ...any) {
	r.Errors = append(r.Errors, Result{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
	r.Valid = false
	r.updateSummary()
}

// AddWarning adds a warning result.
func (r *Report) AddWarning(path, format string, args ...any) {
	r.Warnings = append(r.Warnings, Result{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
	r.updateSummary()
}

// AddInfo adds an informational result.
func (r *Report) AddInfo(path, format string, args ...any) {
	r.Info = append(r.Info, Result{Severity: SeverityInfo, Path: path, Message: fmt.Sprintf(format, args...)})
	r.updateSummary()
}

func (r *Report) updateSummary() {
	r.Summary = fmt.Sprintf("%d errors, %d warnings, %d info",
		len(r.Errors), len(r.Warnings), len(r.Info))
}

// InvalidError is returned by Load when the level fails validation.
type InvalidError struct {
	Report *Report
}

func (e *InvalidError) Error() string {
	if len(e.Report.Errors) == 0 {
		return "invalid level"
	}
	return fmt.Sprintf("invalid level (%s): %s", e.Report.Summary, e.Report.Errors[0])
}
