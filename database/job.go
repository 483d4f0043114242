package database

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// JobType says where a conversion came from
type JobType string

const (
	JobTypeInteractive JobType = "interactive"
	JobTypeBatch       JobType = "batch"
)

// Job is one PDF conversion
type Job struct {
	ID           ulid.ULID  `json:"id"`
	Type         JobType    `json:"type"`
	Status       JobStatus  `json:"status"`
	Document     string     `json:"document"`
	RequestedDPI int        `json:"requestedDPI"`
	EffectiveDPI int        `json:"effectiveDPI"`
	Pages        int        `json:"pages"`
	Message      string     `json:"message"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	DurationMS   int64      `json:"durationMs"`
}

// Tracker records conversions of one type in a Repository
type Tracker struct {
	repo    Repository
	jobType JobType
}

// NewTracker returns nil when repo is nil so callers can pass the result straight through
func NewTracker(repo Repository, jobType JobType) *Tracker {
	if repo == nil {
		return nil
	}
	return &Tracker{repo: repo, jobType: jobType}
}

// Begin records a running conversion and returns its job ID
func (t *Tracker) Begin(document string, requestedDPI, effectiveDPI int) (string, error) {
	job, err := t.repo.CreateJob(t.jobType, document, requestedDPI, effectiveDPI)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}
	return job.ID.String(), nil
}

// Succeed marks a conversion as completed
func (t *Tracker) Succeed(jobID string, pages int, message string) error {
	id, err := ulid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", jobID, err)
	}
	return t.repo.CompleteJob(id, pages, message)
}

// Fail marks a conversion as failed
func (t *Tracker) Fail(jobID string, message string) error {
	id, err := ulid.Parse(jobID)
	if err != nil {
		return fmt.Errorf("invalid job ID %q: %w", jobID, err)
	}
	return t.repo.FailJob(id, message)
}
