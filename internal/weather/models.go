package weather

import (
	"time"
)

// DateTimeLayout is the layout used for the DATETIME column.
const DateTimeLayout = "2006-01-02 15:04:05"

// Stage names the pipeline step an error record was raised in.
type Stage string

const (
	StageExtract   Stage = "Extract"
	StageTransform Stage = "Transform"
	StageLoad      Stage = "Load"
)

// Location is the geocoded form of a city query.
type Location struct {
	Country string  `json:"country"`
	State   string  `json:"state"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Key returns a canonical string key for logging this location.
func (l Location) Key() string {
	if l.State == "" {
		return l.City + ":" + l.Country
	}
	return l.City + ":" + l.State + ":" + l.Country
}

// Record is one weather row destined for the warehouse.
type Record struct {
	Timestamp time.Time `json:"timestamp"` // always UTC, second precision
	Temp      float64   `json:"temp"`
	TempHigh  float64   `json:"tempHigh"`
	TempLow   float64   `json:"tempLow"`
	Country   string    `json:"country"`
	State     string    `json:"state"`
	City      string    `json:"city"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
}

// DateTime renders the timestamp as "YYYY-MM-DD HH:MM:SS" in UTC.
func (r Record) DateTime() string {
	return r.Timestamp.UTC().Format(DateTimeLayout)
}

// ErrorRecord describes a per-city failure that did not abort the run.
type ErrorRecord struct {
	Stage   Stage  `json:"stage"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Report is the outcome of a single pipeline run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Cities     int

	// Records keeps input city order with failed cities removed.
	Records []Record
	Errors  []ErrorRecord
	Loaded  int
}

// RunSummary is the count-only view of a run kept in the run store.
type RunSummary struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Cities     int       `json:"cities"`
	Records    int       `json:"records"`
	Loaded     int       `json:"loaded"`
	Errors     int       `json:"errors"`
	Failed     bool      `json:"failed"`
	Message    string    `json:"message,omitempty"`
}

// Summary reduces the report to counts. runErr is the error returned by Run, if any.
func (r *Report) Summary(runErr error) RunSummary {
	s := RunSummary{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Cities:     r.Cities,
		Records:    len(r.Records),
		Loaded:     r.Loaded,
		Errors:     len(r.Errors),
	}
	if runErr != nil {
		s.Failed = true
		s.Message = runErr.Error()
	}
	return s
}
