package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/floostack/transcoder/ffmpeg"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/config"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// Processor runs the watermark-crop and narration-mux steps on local
// files. It consumes a verified input path and produces a distinct
// output path; acquisition and storage are someone else's job.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	log         *logger.Logger
}

func New(cfg config.ProcessConfig, log *logger.Logger) *Processor {
	ffmpegPath := cfg.FfmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	ffprobePath := cfg.FfprobePath
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Processor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, log: log}
}

// CropWatermark shaves pixels off one edge of the video, copying the
// audio stream through untouched. pixels == 0 copies the input to the
// output unchanged.
func (p *Processor) CropWatermark(ctx context.Context, inPath, outPath string, pixels int, position string) error {
	if pixels < 0 {
		return fmt.Errorf("%w: negative crop amount %d", domain.ErrInvalidInput, pixels)
	}
	if pixels == 0 {
		return copyFile(inPath, outPath)
	}

	width, height, err := p.ProbeDimensions(inPath)
	if err != nil {
		return fmt.Errorf("failed to probe input video: %w", err)
	}

	filter, err := BuildCropFilter(width, height, pixels, position)
	if err != nil {
		return err
	}

	p.log.Debug("applying crop filter %q to %s", filter, inPath)

	audioCodec := "copy"
	movFlags := "+faststart"
	overwrite := true
	opts := ffmpeg.Options{
		AudioCodec: &audioCodec,
		MovFlags:   &movFlags,
		Overwrite:  &overwrite,
		ExtraArgs:  map[string]interface{}{"-vf": filter},
	}

	progress, err := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   p.ffmpegPath,
			FfprobeBinPath:  p.ffprobePath,
		}).
		Input(inPath).
		Output(outPath).
		WithContext(&ctx).
		Start(opts)
	if err != nil {
		return fmt.Errorf("crop failed to start: %w", err)
	}

	// Channel closes when ffmpeg exits.
	for range progress {
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(outPath)
		return err
	}

	return p.verifyOutput(outPath, width, height, pixels, position)
}

// ReplaceAudio muxes the synthesized narration over the processed
// video, copying the video stream and trimming to the shorter input.
func (p *Processor) ReplaceAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		"-movflags", "+faststart",
		outPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("audio mux failed: %w, stderr: %s", err, tail(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: mux produced no output", domain.ErrVerification)
	}
	return nil
}

// ProbeDimensions reads the frame size of the first stream.
func (p *Processor) ProbeDimensions(path string) (int, int, error) {
	metadata, err := ffmpeg.
		New(&ffmpeg.Config{FfmpegBinPath: p.ffmpegPath, FfprobeBinPath: p.ffprobePath}).
		Input(path).
		GetMetadata()
	if err != nil {
		return 0, 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	streams := metadata.GetStreams()
	if len(streams) == 0 {
		return 0, 0, fmt.Errorf("no streams in %s", path)
	}

	// Video stream first in every container we produce or accept.
	width := streams[0].GetWidth()
	height := streams[0].GetHeight()
	if width == 0 || height == 0 {
		return 0, 0, fmt.Errorf("no video dimensions in %s", path)
	}
	return width, height, nil
}

// verifyOutput checks the cropped artifact exists and has the expected
// reduced dimensions.
func (p *Processor) verifyOutput(outPath string, width, height, pixels int, position string) error {
	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVerification, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(outPath)
		return fmt.Errorf("%w: output is empty", domain.ErrVerification)
	}

	gotW, gotH, err := p.ProbeDimensions(outPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVerification, err)
	}

	wantW, wantH := width, height
	switch normalizePosition(position) {
	case "left", "right":
		wantW -= pixels
	default:
		wantH -= pixels
	}

	if gotW != wantW || gotH != wantH {
		return fmt.Errorf("%w: output is %dx%d, expected %dx%d", domain.ErrVerification, gotW, gotH, wantW, wantH)
	}
	return nil
}

// BuildCropFilter produces the ffmpeg crop expression for removing
// pixels from the given edge.
func BuildCropFilter(width, height, pixels int, position string) (string, error) {
	pos := normalizePosition(position)

	switch pos {
	case "top", "bottom":
		if pixels >= height {
			return "", fmt.Errorf("%w: crop %dpx exceeds height %dpx", domain.ErrInvalidInput, pixels, height)
		}
	case "left", "right":
		if pixels >= width {
			return "", fmt.Errorf("%w: crop %dpx exceeds width %dpx", domain.ErrInvalidInput, pixels, width)
		}
	}

	switch pos {
	case "bottom":
		return fmt.Sprintf("crop=%d:%d:0:0", width, height-pixels), nil
	case "top":
		return fmt.Sprintf("crop=%d:%d:0:%d", width, height-pixels, pixels), nil
	case "left":
		return fmt.Sprintf("crop=%d:%d:%d:0", width-pixels, height, pixels), nil
	case "right":
		return fmt.Sprintf("crop=%d:%d:0:0", width-pixels, height), nil
	default:
		return "", fmt.Errorf("%w: unknown crop position %q", domain.ErrInvalidInput, position)
	}
}

func normalizePosition(position string) string {
	pos := strings.ToLower(strings.TrimSpace(position))
	if pos == "" {
		return "bottom"
	}
	return pos
}

func copyFile(src, dst string) error {
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
	return out.Close()
}

// tail keeps error messages readable; ffmpeg writes pages of banner
// text before the part that matters.
func tail(s string) string {
	s = strings.TrimSpace(s)
	const max = 500
	if len(s) > max {
		return "..." + s[len(s)-max:]
	}
	return s
}
