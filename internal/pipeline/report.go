package pipeline

import "time"

// Status is the outcome of a single unit of work.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

const (
	StageExtract   = "extract"
	StageLoad      = "load"
	StageTransform = "transform"
)

// Unit is one date of the extract stage, the load job, or one query definition of the
// transform stage.
type Unit struct {
	Stage    string        `json:"stage"`
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Records  int           `json:"records,omitempty"`
	Rows     int64         `json:"rows,omitempty"`
	Key      string        `json:"key,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Report summarizes a pipeline run.
type Report struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration_ns"`
	RowsLoaded int64         `json:"rows_loaded"`
	Units      []Unit        `json:"units"`
}

// Stage returns the units of one stage in dispatch order.
func (r *Report) Stage(stage string) []Unit {
	var units []Unit
	for _, u := range r.Units {
		if u.Stage == stage {
			units = append(units, u)
		}
	}
	return units
}

// Count returns how many units of stage ended with status.
func (r *Report) Count(stage string, status Status) int {
	n := 0
	for _, u := range r.Units {
		if u.Stage == stage && u.Status == status {
			n++
		}
	}
	return n
}

func skippedUnits(stage string, names []string) []Unit {
	units := make([]Unit, len(names))
	for i, name := range names {
		units[i] = Unit{Stage: stage, Name: name, Status: StatusSkipped}
	}
	return units
}
