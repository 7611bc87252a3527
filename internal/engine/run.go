package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/fetch"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// Fetcher is the download orchestrator as the runner sees it.
type Fetcher interface {
	Download(ctx context.Context, caps domain.CapabilitySet, req fetch.Request, dest string) domain.DownloadResult
}

// Synthesizer is the narration subsystem as the runner sees it.
type Synthesizer interface {
	Synthesize(ctx context.Context, req domain.TTSRequest) (domain.TTSResult, error)
}

// Cropper is the local processing step as the runner sees it.
type Cropper interface {
	CropWatermark(ctx context.Context, inPath, outPath string, pixels int, position string) error
	ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error
}

// Runner executes one job end to end: download, watermark crop,
// optional narration resynthesis, finalize. Steps run strictly in
// sequence; each step's output is the next step's input. A fresh
// working directory is created per run and released on every exit
// path; only the final artifact survives.
type Runner struct {
	fetcher   Fetcher
	speech    Synthesizer
	processor Cropper

	// caps re-probes per job so a credential provisioned mid-run is
	// picked up without a restart.
	caps func() domain.CapabilitySet

	workDir   string
	outputDir string
	log       *logger.Logger
}

func NewRunner(fetcher Fetcher, speech Synthesizer, processor Cropper, caps func() domain.CapabilitySet, workDir, outputDir string, log *logger.Logger) *Runner {
	return &Runner{
		fetcher:   fetcher,
		speech:    speech,
		processor: processor,
		caps:      caps,
		workDir:   workDir,
		outputDir: outputDir,
		log:       log,
	}
}

// Run drives the job through its state machine. transition is invoked
// exactly once per state change, before the step runs. The returned
// error is the failure reason; nil means the job completed and
// job.ArtifactPath points at the stored output.
func (r *Runner) Run(ctx context.Context, job *domain.Job, transition func(domain.JobStatus)) error {
	workdir, err := os.MkdirTemp(r.workDir, job.ID+"-")
	if err != nil {
		return fmt.Errorf("failed to create working directory: %w", err)
	}
	defer os.RemoveAll(workdir)

	// Download
	if err := ctx.Err(); err != nil {
		return err
	}
	transition(domain.StatusDownloading)

	sourcePath := filepath.Join(workdir, "source.mp4")
	res := r.fetcher.Download(ctx, r.caps(), fetch.Request{URL: job.URL, Platform: job.Platform}, sourcePath)
	r.logDiagnostics(job.ID, res.Attempts)
	if !res.Success {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fmt.Errorf("source could not be fetched: %s", res.Error)
	}
	job.MethodUsed = res.MethodUsed

	// Processing
	if err := ctx.Err(); err != nil {
		return err
	}
	transition(domain.StatusProcessing)

	processedPath := filepath.Join(workdir, "processed.mp4")
	if err := r.processor.CropWatermark(ctx, sourcePath, processedPath, job.Params.CropPixels, job.Params.CropPosition); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("processing failed: %w", err)
	}

	finalPath := processedPath

	// Optional narration resynthesis
	if n := job.Params.Narration; n != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		transition(domain.StatusSynthesizing)

		audioPath := filepath.Join(workdir, "narration.audio")
		ttsRes, err := r.speech.Synthesize(ctx, domain.TTSRequest{
			Text:         n.Text,
			DestPath:     audioPath,
			Provider:     n.Provider,
			VoiceRefPath: n.VoiceRefPath,
			VoiceID:      n.VoiceID,
			Emotion:      n.Emotion,
		})
		if err != nil {
			return fmt.Errorf("synthesis input invalid: %v", err)
		}
		r.logDiagnostics(job.ID, ttsRes.Attempts)
		job.ProviderUsed = ttsRes.ProviderUsed

		muxedPath := filepath.Join(workdir, "final.mp4")
		if err := r.processor.ReplaceAudio(ctx, processedPath, ttsRes.AudioPath, muxedPath); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("processing failed: %w", err)
		}
		finalPath = muxedPath
	}

	// Finalize: move the artifact out of the doomed working directory.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(r.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	artifactPath := filepath.Join(r.outputDir, job.ID+".mp4")
	if err := moveFile(finalPath, artifactPath); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	job.ArtifactPath = artifactPath
	job.FinishedAt = time.Now()
	return nil
}

func (r *Runner) logDiagnostics(jobID string, diags []domain.Diagnostic) {
	for _, d := range diags {
		switch d.Action {
		case domain.DiagFail:
			r.log.Warn("[%s] %s", jobID, d)
		default:
			r.log.Debug("[%s] %s", jobID, d)
		}
	}
}

// moveFile renames when possible and falls back to copy+remove when the
// work dir and output dir sit on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// failureReason turns a run error into the human-readable reason stored
// on the job, distinguishing cancellation from the other failure modes.
func failureReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}
