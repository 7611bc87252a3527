package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/clipwash/clipwash/internal/app"
	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/engine"
)

type JobsController struct {
	App *app.Context
}

// Submit accepts a job and returns its identifier immediately.
// Completion is reported asynchronously via Get.
func (ctrl *JobsController) Submit(c *echo.Context) error {
	var req SubmitJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed request body"})
	}

	submit := engine.SubmitRequest{
		SourceURL:    req.SourceURL,
		PlatformHint: req.PlatformHint,
	}
	if p := req.ProcessingParams; p != nil {
		submit.Params.CropPixels = p.CropPixels
		submit.Params.CropPosition = p.CropPosition
		if n := p.Narration; n != nil {
			submit.Params.Narration = &domain.NarrationParams{
				Text:         n.Text,
				Provider:     domain.SpeechProvider(n.Provider),
				VoiceRefPath: n.VoiceRefPath,
				VoiceID:      n.VoiceID,
				Emotion:      n.Emotion,
			}
		}
	}

	job, err := ctrl.App.Queue.Add(submit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		ctrl.App.Logger.Error("job submission failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not accept job"})
	}

	return c.JSON(http.StatusAccepted, toJobResponse(job))
}

func (ctrl *JobsController) Get(c *echo.Context) error {
	job, ok := ctrl.App.Queue.GetJob(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found"})
	}
	return c.JSON(http.StatusOK, toJobResponse(job))
}

func (ctrl *JobsController) List(c *echo.Context) error {
	jobs, err := ctrl.App.Queue.GetAllJobs()
	if err != nil {
		ctrl.App.Logger.Error("listing jobs failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "could not list jobs"})
	}

	resp := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		resp = append(resp, toJobResponse(job))
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel requests cooperative cancellation. The job lands in
// failed(cancelled) once the in-flight step notices.
func (ctrl *JobsController) Cancel(c *echo.Context) error {
	if !ctrl.App.Queue.Cancel(c.Param("id")) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "job not found or already finished"})
	}
	return c.NoContent(http.StatusAccepted)
}

// Capabilities reports which acquisition methods are usable right now.
func (ctrl *JobsController) Capabilities(c *echo.Context) error {
	return c.JSON(http.StatusOK, ctrl.App.Prober.Probe())
}
