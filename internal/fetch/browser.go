package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
)

// NativeBrowser renders the share page with a locally installed
// headless browser, extracts the media URL from the DOM, and downloads
// it. Middle ground between the managed service and a blind HTTP GET.
type NativeBrowser struct {
	binaryPath string
	client     *http.Client
}

func NewNativeBrowser(binaryPath string) *NativeBrowser {
	return &NativeBrowser{
		binaryPath: binaryPath,
		client:     &http.Client{Timeout: 10 * time.Minute},
	}
}

func (b *NativeBrowser) Name() domain.AcquisitionMethod { return domain.MethodNativeBrowser }

func (b *NativeBrowser) Fetch(ctx context.Context, req Request, dest string) error {
	page, err := b.renderPage(ctx, req.URL)
	if err != nil {
		return err
	}

	mediaURL, err := extractMediaURL(page, req.Platform)
	if err != nil {
		return err
	}

	return saveURL(ctx, b.client, mediaURL, dest)
}

// renderPage dumps the DOM after letting scripts run under a virtual
// time budget, so client-rendered share pages still yield their URLs.
func (b *NativeBrowser) renderPage(ctx context.Context, url string) (string, error) {
	cmd := exec.CommandContext(ctx, b.binaryPath,
		"--headless=new",
		"--disable-gpu",
		"--no-sandbox",
		"--virtual-time-budget=10000",
		"--dump-dom",
		url,
	)

	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("browser render failed: %w, stderr: %s", err, stderr.String())
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("browser produced empty page for %s", url)
	}

	return out.String(), nil
}
