package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/fetch"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

type fakeFetcher struct {
	fail    bool
	block   chan struct{}
	lastReq fetch.Request
}

func (f *fakeFetcher) Download(ctx context.Context, caps domain.CapabilitySet, req fetch.Request, dest string) domain.DownloadResult {
	f.lastReq = req
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return domain.DownloadResult{Success: false, Error: ctx.Err().Error()}
		}
	}
	if f.fail {
		return domain.DownloadResult{Success: false, Error: "all acquisition methods failed: direct-fetch: 403"}
	}
	if err := os.WriteFile(dest, []byte("source video"), 0644); err != nil {
		return domain.DownloadResult{Success: false, Error: err.Error()}
	}
	return domain.DownloadResult{Success: true, FilePath: dest, MethodUsed: domain.MethodDirectFetch}
}

type fakeSynth struct {
	called bool
	text   string
}

func (f *fakeSynth) Synthesize(ctx context.Context, req domain.TTSRequest) (domain.TTSResult, error) {
	f.called = true
	f.text = req.Text
	if err := os.WriteFile(req.DestPath, []byte("narration"), 0644); err != nil {
		return domain.TTSResult{}, err
	}
	return domain.TTSResult{AudioPath: req.DestPath, DurationMs: 800, ProviderUsed: domain.ProviderGeneric}, nil
}

type fakeCropper struct {
	cropErr    error
	lastPixels int
	lastPos    string
}

func (f *fakeCropper) CropWatermark(ctx context.Context, inPath, outPath string, pixels int, position string) error {
	f.lastPixels = pixels
	f.lastPos = position
	if f.cropErr != nil {
		return f.cropErr
	}
	data, err := os.ReadFile(inPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, append(data, []byte(" cropped")...), 0644)
}

func (f *fakeCropper) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	data, err := os.ReadFile(videoPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, append(data, []byte(" remuxed")...), 0644)
}

func everything() domain.CapabilitySet {
	caps := domain.CapabilitySet{}
	for _, m := range domain.MethodPriority() {
		caps[m] = true
	}
	return caps
}

func newTestRunner(t *testing.T, fetcher *fakeFetcher, synth *fakeSynth, cropper *fakeCropper) *Runner {
	t.Helper()
	workDir := t.TempDir()
	outDir := t.TempDir()
	return NewRunner(fetcher, synth, cropper, everything, workDir, outDir, logger.Discard())
}

func newTestJob(params domain.ProcessingParams) *domain.Job {
	return &domain.Job{
		ID:        "job1",
		URL:       "https://www.tiktok.com/@user/video/1",
		Platform:  domain.PlatformTikTok,
		Params:    params,
		Status:    domain.StatusQueued,
		CreatedAt: time.Now(),
	}
}

func TestRunHappyPathWithoutNarration(t *testing.T) {
	fetcher := &fakeFetcher{}
	cropper := &fakeCropper{}
	synth := &fakeSynth{}
	r := newTestRunner(t, fetcher, synth, cropper)

	job := newTestJob(domain.ProcessingParams{CropPixels: 80, CropPosition: "bottom"})

	var transitions []domain.JobStatus
	err := r.Run(context.Background(), job, func(s domain.JobStatus) {
		transitions = append(transitions, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.JobStatus{domain.StatusDownloading, domain.StatusProcessing}, transitions)
	assert.False(t, synth.called, "no narration requested")
	assert.Equal(t, 80, cropper.lastPixels)
	assert.Equal(t, "bottom", cropper.lastPos)
	assert.Equal(t, domain.MethodDirectFetch, job.MethodUsed)

	require.NotEmpty(t, job.ArtifactPath)
	assert.FileExists(t, job.ArtifactPath)
	assert.Equal(t, "job1.mp4", filepath.Base(job.ArtifactPath))

	data, err := os.ReadFile(job.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "source video cropped", string(data), "artifact is the cropped output, not the source")
}

func TestRunWithNarrationMuxesAudio(t *testing.T) {
	fetcher := &fakeFetcher{}
	cropper := &fakeCropper{}
	synth := &fakeSynth{}
	r := newTestRunner(t, fetcher, synth, cropper)

	job := newTestJob(domain.ProcessingParams{
		CropPixels: 80,
		Narration:  &domain.NarrationParams{Text: "fresh voice over"},
	})

	var transitions []domain.JobStatus
	err := r.Run(context.Background(), job, func(s domain.JobStatus) {
		transitions = append(transitions, s)
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.JobStatus{domain.StatusDownloading, domain.StatusProcessing, domain.StatusSynthesizing}, transitions)
	assert.True(t, synth.called)
	assert.Equal(t, "fresh voice over", synth.text)
	assert.Equal(t, domain.ProviderGeneric, job.ProviderUsed)

	data, err := os.ReadFile(job.ArtifactPath)
	require.NoError(t, err)
	assert.Equal(t, "source video cropped remuxed", string(data))
}

func TestRunDownloadFailure(t *testing.T) {
	fetcher := &fakeFetcher{fail: true}
	r := newTestRunner(t, fetcher, &fakeSynth{}, &fakeCropper{})

	job := newTestJob(domain.ProcessingParams{})
	err := r.Run(context.Background(), job, func(domain.JobStatus) {})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source could not be fetched")
	assert.Empty(t, job.ArtifactPath)
}

func TestRunProcessingFailure(t *testing.T) {
	cropper := &fakeCropper{cropErr: errors.New("ffmpeg exited 1")}
	r := newTestRunner(t, &fakeFetcher{}, &fakeSynth{}, cropper)

	job := newTestJob(domain.ProcessingParams{CropPixels: 80})
	err := r.Run(context.Background(), job, func(domain.JobStatus) {})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "processing failed")
}

func TestRunCleansUpWorkingDirectory(t *testing.T) {
	fetcher := &fakeFetcher{}
	workDir := t.TempDir()
	outDir := t.TempDir()
	r := NewRunner(fetcher, &fakeSynth{}, &fakeCropper{}, everything, workDir, outDir, logger.Discard())

	job := newTestJob(domain.ProcessingParams{CropPixels: 80})
	require.NoError(t, r.Run(context.Background(), job, func(domain.JobStatus) {}))

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "intermediate files must not survive the run")
}

func TestRunCancellation(t *testing.T) {
	block := make(chan struct{})
	fetcher := &fakeFetcher{block: block}
	r := newTestRunner(t, fetcher, &fakeSynth{}, &fakeCropper{})

	ctx, cancel := context.WithCancel(context.Background())
	job := newTestJob(domain.ProcessingParams{})

	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, job, func(domain.JobStatus) {})
	}()

	cancel()
	err := <-done
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled", failureReason(err))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "", failureReason(nil))
	assert.Equal(t, "cancelled", failureReason(context.Canceled))
	assert.Equal(t, "boom", failureReason(errors.New("boom")))
}
