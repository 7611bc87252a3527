package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionForwardOnly(t *testing.T) {
	assert.True(t, CanTransition(StatusQueued, StatusDownloading))
	assert.True(t, CanTransition(StatusDownloading, StatusProcessing))
	assert.True(t, CanTransition(StatusProcessing, StatusSynthesizing))
	assert.True(t, CanTransition(StatusSynthesizing, StatusCompleted))

	// The synthesis step is optional, jumps are allowed.
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))

	// No going backwards or repeating a state.
	assert.False(t, CanTransition(StatusProcessing, StatusDownloading))
	assert.False(t, CanTransition(StatusDownloading, StatusDownloading))
	assert.False(t, CanTransition(StatusSynthesizing, StatusQueued))
}

func TestCanTransitionFailureReachableAnywhere(t *testing.T) {
	for _, from := range []JobStatus{StatusQueued, StatusDownloading, StatusProcessing, StatusSynthesizing} {
		assert.True(t, CanTransition(from, StatusFailed), "from %s", from)
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	for _, terminal := range []JobStatus{StatusCompleted, StatusFailed} {
		assert.True(t, terminal.Terminal())
		for _, to := range []JobStatus{StatusQueued, StatusDownloading, StatusProcessing, StatusSynthesizing, StatusCompleted, StatusFailed} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	assert.Equal(t, PlatformTikTok, ParsePlatform("tiktok"))
	assert.Equal(t, PlatformSora, ParsePlatform("  Sora "))
	assert.Equal(t, PlatformUnknown, ParsePlatform("vimeo"))
	assert.Equal(t, PlatformUnknown, ParsePlatform(""))
}

func TestDetectPlatform(t *testing.T) {
	cases := map[string]Platform{
		"https://www.tiktok.com/@user/video/123":  PlatformTikTok,
		"https://sora.chatgpt.com/g/gen_abc":      PlatformSora,
		"https://app.runwayml.com/creation/xyz":   PlatformRunway,
		"https://youtu.be/dQw4w9WgXcQ":            PlatformYouTube,
		"https://example.com/clip.mp4":            PlatformUnknown,
	}
	for url, want := range cases {
		assert.Equal(t, want, DetectPlatform(url), url)
	}
}

func TestMethodPriorityOrder(t *testing.T) {
	want := []AcquisitionMethod{MethodRemoteBrowser, MethodNativeBrowser, MethodYtDlp, MethodDirectFetch}
	assert.Equal(t, want, MethodPriority())
}

func TestCapabilitySet(t *testing.T) {
	caps := CapabilitySet{MethodYtDlp: true, MethodDirectFetch: false}
	assert.True(t, caps.Available(MethodYtDlp))
	assert.False(t, caps.Available(MethodDirectFetch))
	assert.False(t, caps.Available(MethodRemoteBrowser))
	assert.True(t, caps.AnyAvailable())
	assert.False(t, CapabilitySet{}.AnyAvailable())
}
