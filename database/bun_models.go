package database

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/uptrace/bun"
)

// BunJob represents the jobs table for Bun ORM
type BunJob struct {
	bun.BaseModel `bun:"table:jobs,alias:j"`

	ID           string     `bun:"id,pk"` // ULID as string
	Type         string     `bun:"type,notnull"`
	Status       string     `bun:"status,default:'running'"`
	Document     string     `bun:"document,notnull"`
	RequestedDPI int        `bun:"requested_dpi,notnull"`
	EffectiveDPI int        `bun:"effective_dpi,notnull"`
	Pages        int        `bun:"pages,default:0"`
	Message      string     `bun:"message,default:''"`
	Error        string     `bun:"error,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	CompletedAt  *time.Time `bun:"completed_at,nullzero"`
}

// ToJob converts BunJob to Job
func (bj *BunJob) ToJob() (*Job, error) {
	parsedULID, err := ulid.Parse(bj.ID)
	if err != nil {
		return nil, err
	}

	job := &Job{
		ID:           parsedULID,
		Type:         JobType(bj.Type),
		Status:       JobStatus(bj.Status),
		Document:     bj.Document,
		RequestedDPI: bj.RequestedDPI,
		EffectiveDPI: bj.EffectiveDPI,
		Pages:        bj.Pages,
		Message:      bj.Message,
		Error:        bj.Error,
		CreatedAt:    bj.CreatedAt,
		UpdatedAt:    bj.UpdatedAt,
		CompletedAt:  bj.CompletedAt,
	}
	if bj.CompletedAt != nil {
		job.DurationMS = bj.CompletedAt.Sub(bj.CreatedAt).Milliseconds()
	}
	return job, nil
}

// FromJob converts Job to BunJob
func FromJob(job *Job) *BunJob {
	return &BunJob{
		ID:           job.ID.String(),
		Type:         string(job.Type),
		Status:       string(job.Status),
		Document:     job.Document,
		RequestedDPI: job.RequestedDPI,
		EffectiveDPI: job.EffectiveDPI,
		Pages:        job.Pages,
		Message:      job.Message,
		Error:        job.Error,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
		CompletedAt:  job.CompletedAt,
	}
}
