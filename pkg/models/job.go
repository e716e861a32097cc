package models

import "time"

// Job is a single (source, effect, parameters, destination) unit of work.
// It lives for one call only and is never persisted.
type Job struct {
	ID          string       `json:"id"`
	Source      string       `json:"source"`
	Effect      EffectType   `json:"effect"`
	Params      EffectParams `json:"params,omitempty"`
	Destination string       `json:"destination"`
	StartedAt   time.Time    `json:"started_at"`
}

// JobStatus constants
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusTimeout   = "timeout"
)

// BatchItem is the settled outcome of one batch job
type BatchItem struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Err         error  `json:"-"`
	Error       string `json:"error,omitempty"`
}

// BatchResult holds every settled batch item in input order
type BatchResult struct {
	Effect    EffectType  `json:"effect"`
	Succeeded []BatchItem `json:"succeeded"`
	Failed    []BatchItem `json:"failed"`
}

// Outputs returns the destination paths of all successful items
func (r *BatchResult) Outputs() []string {
	out := make([]string, 0, len(r.Succeeded))
	for _, item := range r.Succeeded {
		out = append(out, item.Destination)
	}
	return out
}
