package model

// PhaseStatus represents the state of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Records  int         `json:"records"`
	Error    string      `json:"error,omitempty"`
}

// RunResult is the final output of a full pipeline run.
type RunResult struct {
	Target       string        `json:"target"`
	Phases       []PhaseResult `json:"phases"`
	RawRecords   int           `json:"raw_records"`
	CleanRecords int           `json:"clean_records"`
	AvgQuality   float64       `json:"avg_quality"`
	ReportPath   string        `json:"report_path,omitempty"`
	CSVPath      string        `json:"csv_path,omitempty"`
}
