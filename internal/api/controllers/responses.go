package controllers

import (
	"time"

	"github.com/clipwash/clipwash/internal/domain"
)

// SubmitJobRequest is the submission boundary shape.
type SubmitJobRequest struct {
	SourceURL        string            `json:"sourceUrl"`
	PlatformHint     string            `json:"platformHint,omitempty"`
	ProcessingParams *ProcessingParams `json:"processingParams,omitempty"`
}

type ProcessingParams struct {
	CropPixels   int              `json:"cropPixels"`
	CropPosition string           `json:"cropPosition,omitempty"`
	Narration    *NarrationParams `json:"narration,omitempty"`
}

type NarrationParams struct {
	Text         string `json:"text"`
	Provider     string `json:"provider,omitempty"`
	VoiceRefPath string `json:"voiceRefPath,omitempty"`
	VoiceID      string `json:"voiceId,omitempty"`
	Emotion      string `json:"emotion,omitempty"`
}

// JobResponse is the status view returned for every job query.
type JobResponse struct {
	ID           string     `json:"id"`
	SourceURL    string     `json:"sourceUrl"`
	Platform     string     `json:"platform"`
	Status       string     `json:"status"`
	Error        string     `json:"error,omitempty"`
	ArtifactPath string     `json:"artifactPath,omitempty"`
	MethodUsed   string     `json:"methodUsed,omitempty"`
	ProviderUsed string     `json:"providerUsed,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toJobResponse(job *domain.Job) JobResponse {
	resp := JobResponse{
		ID:           job.ID,
		SourceURL:    job.URL,
		Platform:     string(job.Platform),
		Status:       string(job.Status),
		Error:        job.Error,
		ArtifactPath: job.ArtifactPath,
		MethodUsed:   string(job.MethodUsed),
		ProviderUsed: string(job.ProviderUsed),
		CreatedAt:    job.CreatedAt,
	}
	if !job.FinishedAt.IsZero() {
		t := job.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}
