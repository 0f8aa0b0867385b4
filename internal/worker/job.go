package worker

import "babylog/internal/models"

type JobType int

const (
	Process JobType = iota
	Stop
)

// Job is one unit handed to the pool: either a submission to run through the
// pipeline or an internal stop signal for an idle worker.
type Job struct {
	Type       JobType
	Submission models.Submission
}
