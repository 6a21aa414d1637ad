package types

import "time"

// JobStatus represents the current status of a mashup job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Outcome is the user-visible result class of a finished pipeline run.
type Outcome string

const (
	OutcomeSuccess               Outcome = "success"
	OutcomeNoSourcesFound        Outcome = "no_sources_found"
	OutcomeNoSourcesDownloadable Outcome = "no_sources_downloadable"
	OutcomeAssemblyFailed        Outcome = "assembly_failed"
	OutcomeDeliveryFailed        Outcome = "delivery_failed"
)

// MashupJob represents one queued mashup request
type MashupJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Query       string     `json:"query"`
	SourceCount int        `json:"sourceCount"`
	Duration    int        `json:"duration"` // excerpt seconds per source
	Email       string     `json:"email"`
	Outcome     Outcome    `json:"outcome,omitempty"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
