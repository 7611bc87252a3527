package platform

import (
	"net"
	"os/exec"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/config"
)

// browserBinaries are the local browser binaries probed for the
// native-browser method, in preference order.
var browserBinaries = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// ytdlpBinary backs the command-line-downloader method.
const ytdlpBinary = "yt-dlp"

const netProbeTimeout = 2 * time.Second

// Prober computes CapabilitySets from the execution environment. Safe
// to call repeatedly; each check resolves to a boolean, never an error.
type Prober struct {
	cfg config.DownloadConfig

	// dial is swappable for tests.
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
	// lookPath is swappable for tests.
	lookPath func(file string) (string, error)
}

func NewProber(cfg config.DownloadConfig) *Prober {
	return &Prober{
		cfg:      cfg,
		dial:     net.DialTimeout,
		lookPath: exec.LookPath,
	}
}

// Probe snapshots which acquisition methods are currently usable. The
// result is shared read-only across concurrent jobs.
func (p *Prober) Probe() domain.CapabilitySet {
	return domain.CapabilitySet{
		domain.MethodRemoteBrowser: p.cfg.RemoteBrowser.APIKey != "",
		domain.MethodNativeBrowser: p.BrowserBinary() != "",
		domain.MethodYtDlp:         p.hasBinary(ytdlpBinary),
		domain.MethodDirectFetch:   p.networkReachable(),
	}
}

// BrowserBinary returns the first locally installed browser binary, or
// empty when none is found.
func (p *Prober) BrowserBinary() string {
	for _, bin := range browserBinaries {
		if path, err := p.lookPath(bin); err == nil {
			return path
		}
	}
	return ""
}

// YtDlpBinary returns the resolved yt-dlp path, or empty.
func (p *Prober) YtDlpBinary() string {
	path, err := p.lookPath(ytdlpBinary)
	if err != nil {
		return ""
	}
	return path
}

func (p *Prober) hasBinary(name string) bool {
	_, err := p.lookPath(name)
	return err == nil
}

// networkReachable checks generic outbound connectivity with a short
// TCP dial. Unreachable resolves to false, never an error.
func (p *Prober) networkReachable() bool {
	addr := p.cfg.ProbeAddr
	if addr == "" {
		addr = "1.1.1.1:443"
	}
	conn, err := p.dial("tcp", addr, netProbeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
