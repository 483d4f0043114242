package database

import (
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrJobNotFound is returned when no job has the requested ID
var ErrJobNotFound = errors.New("job not found")

// Repository defines the job history operations
type Repository interface {
	Close() error
	CreateJob(jobType JobType, document string, requestedDPI, effectiveDPI int) (*Job, error)
	CompleteJob(jobID ulid.ULID, pages int, message string) error
	FailJob(jobID ulid.ULID, errorMsg string) error
	GetJob(jobID ulid.ULID) (*Job, error)
	GetRecentJobs(limit, offset int) ([]Job, error)
	DeleteOldJobs(olderThan time.Duration) (int, error)
}
