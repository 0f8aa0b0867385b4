package models

// Submission is one user-initiated voice logging event. It lives only in
// process memory: created by the upload handler, consumed exactly once by a
// background job.

type Submission struct {
	FilePath string `json:"file_path"`
	Activity string `json:"activity,omitempty"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}
