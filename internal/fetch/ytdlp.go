package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/clipwash/clipwash/internal/domain"
)

// YtDlp shells out to the yt-dlp binary, which knows the extraction
// quirks of hundreds of platforms.
type YtDlp struct {
	binaryPath string
}

func NewYtDlp(binaryPath string) *YtDlp {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlp{binaryPath: binaryPath}
}

func (d *YtDlp) Name() domain.AcquisitionMethod { return domain.MethodYtDlp }

func (d *YtDlp) Fetch(ctx context.Context, req Request, dest string) error {
	// -f b: best pre-merged format, avoids needing a merge step
	// --no-playlist: a share link should only ever yield one video
	cmd := exec.CommandContext(ctx, d.binaryPath,
		"-f", "b",
		"--no-playlist",
		"--no-warnings",
		"-o", dest,
		req.URL,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return nil
}
