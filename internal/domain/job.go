package domain

import (
	"context"
	"time"
)

type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusDownloading  JobStatus = "downloading"
	StatusProcessing   JobStatus = "processing"
	StatusSynthesizing JobStatus = "synthesizing"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// statusRank orders the pipeline states. Terminal states share the top
// rank; a job only ever moves to a strictly higher rank, so no state is
// revisited within one run.
var statusRank = map[JobStatus]int{
	StatusQueued:       0,
	StatusDownloading:  1,
	StatusProcessing:   2,
	StatusSynthesizing: 3,
	StatusCompleted:    4,
	StatusFailed:       4,
}

// Terminal reports whether the status is absorbing.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from -> to preserves monotonic
// forward progress. Failure is reachable from any non-terminal state.
func CanTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	return statusRank[to] > statusRank[from]
}

// NarrationParams enables the optional resynthesis step. Nil on a job
// means the step is skipped entirely.
type NarrationParams struct {
	Text         string         `json:"text"`
	Provider     SpeechProvider `json:"provider,omitempty"`
	VoiceRefPath string         `json:"voiceRefPath,omitempty"`
	VoiceID      string         `json:"voiceId,omitempty"`
	Emotion      string         `json:"emotion,omitempty"`
}

// ProcessingParams carries per-job processing knobs.
type ProcessingParams struct {
	// CropPixels is how many pixels to shave off the CropPosition edge.
	// Zero means no crop. Never negative on an accepted job.
	CropPixels int `json:"cropPixels"`

	// CropPosition is one of bottom/top/left/right. Empty means bottom.
	CropPosition string `json:"cropPosition,omitempty"`

	Narration *NarrationParams `json:"narration,omitempty"`
}

// Job is one end-to-end request to acquire and process a single source
// video. The engine exclusively owns its state for the duration of one
// run; intermediate files live in a per-run working directory that is
// released on every exit path.
type Job struct {
	ID       string           `json:"id"`
	URL      string           `json:"url"`
	Platform Platform         `json:"platform"`
	Params   ProcessingParams `json:"params"`
	Status   JobStatus        `json:"status"`

	// Error holds the human-readable failure reason once Status is
	// failed. Empty otherwise.
	Error string `json:"error,omitempty"`

	// ArtifactPath is set once the final output is durably stored.
	ArtifactPath string `json:"artifactPath,omitempty"`

	// Method/tier actually used, for the submitting layer.
	MethodUsed   AcquisitionMethod `json:"methodUsed,omitempty"`
	ProviderUsed SpeechProvider    `json:"providerUsed,omitempty"`

	CreatedAt  time.Time `json:"createdAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`

	CancelFunc context.CancelFunc `json:"-"`
}
