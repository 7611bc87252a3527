package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// wordsPerMinute is the fixed speaking rate used to estimate narration
// duration from word count.
const wordsPerMinute = 150

// CloneBackend synthesizes speech mimicking the reference speaker.
type CloneBackend interface {
	Configured() bool
	Synthesize(ctx context.Context, text, voiceRefPath, emotion, dest string) error
}

// GenericBackend synthesizes speech with a stock voice.
type GenericBackend interface {
	Configured() bool
	Synthesize(ctx context.Context, text, voiceID, dest string) error
}

// Orchestrator walks the synthesis fallback chain: voice-clone, then
// generic, then a deterministic silent placeholder. For non-empty text
// it always produces an audio artifact; provider failures are absorbed
// into fallback, never surfaced.
type Orchestrator struct {
	clone        CloneBackend
	generic      GenericBackend
	defaultVoice string
	timeout      time.Duration
	log          *logger.Logger
}

func NewOrchestrator(clone CloneBackend, generic GenericBackend, defaultVoice string, timeout time.Duration, log *logger.Logger) *Orchestrator {
	if defaultVoice == "" {
		defaultVoice = "alloy"
	}
	return &Orchestrator{
		clone:        clone,
		generic:      generic,
		defaultVoice: defaultVoice,
		timeout:      timeout,
		log:          log,
	}
}

// Synthesize produces narration audio at req.DestPath. The only error
// it surfaces is ErrInvalidInput for empty text.
//
// Precedence: a usable voice reference wins over a non-clone provider
// hint; only an explicit mock hint suppresses the real backends.
func (o *Orchestrator) Synthesize(ctx context.Context, req domain.TTSRequest) (domain.TTSResult, error) {
	if strings.TrimSpace(req.Text) == "" {
		return domain.TTSResult{}, fmt.Errorf("%w: narration text is empty", domain.ErrInvalidInput)
	}

	var attempts []domain.Diagnostic
	mockOnly := req.Provider == domain.ProviderMock

	// Tier 1: voice cloning. Attempted once, never retried.
	if reason := o.cloneSkipReason(req, mockOnly); reason != "" {
		attempts = append(attempts, diag(string(domain.ProviderVoiceClone), domain.DiagSkip, reason, 0))
	} else {
		start := time.Now()
		err := o.withTimeout(ctx, func(tierCtx context.Context) error {
			return o.clone.Synthesize(tierCtx, req.Text, req.VoiceRefPath, req.Emotion, req.DestPath)
		})
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, diag(string(domain.ProviderVoiceClone), domain.DiagSuccess, "", elapsed))
			return o.result(req, domain.ProviderVoiceClone, attempts), nil
		}
		o.log.Warn("voice-clone synthesis failed: %v", err)
		attempts = append(attempts, diag(string(domain.ProviderVoiceClone), domain.DiagFail, err.Error(), elapsed))
	}

	// Tier 2: generic synthesis.
	if mockOnly || o.generic == nil || !o.generic.Configured() {
		reason := "credential not configured"
		if mockOnly {
			reason = "mock explicitly requested"
		}
		attempts = append(attempts, diag(string(domain.ProviderGeneric), domain.DiagSkip, reason, 0))
	} else {
		voice := req.VoiceID
		if voice == "" {
			voice = o.defaultVoice
		}

		start := time.Now()
		err := o.withTimeout(ctx, func(tierCtx context.Context) error {
			return o.generic.Synthesize(tierCtx, req.Text, voice, req.DestPath)
		})
		elapsed := time.Since(start)

		if err == nil {
			attempts = append(attempts, diag(string(domain.ProviderGeneric), domain.DiagSuccess, "", elapsed))
			return o.result(req, domain.ProviderGeneric, attempts), nil
		}
		o.log.Warn("generic synthesis failed: %v", err)
		attempts = append(attempts, diag(string(domain.ProviderGeneric), domain.DiagFail, err.Error(), elapsed))
	}

	// Tier 3: deterministic placeholder. Trades fidelity for
	// availability so the pipeline always has an audio artifact.
	durationMs := EstimateDurationMs(req.Text)
	if err := WriteSilentWAV(req.DestPath, durationMs); err != nil {
		// Local disk failure, outside the fallback contract.
		return domain.TTSResult{}, fmt.Errorf("failed to write placeholder audio: %w", err)
	}
	attempts = append(attempts, diag(string(domain.ProviderMock), domain.DiagSuccess, "", 0))

	return domain.TTSResult{
		AudioPath:    req.DestPath,
		DurationMs:   durationMs,
		ProviderUsed: domain.ProviderMock,
		Attempts:     attempts,
	}, nil
}

// cloneSkipReason returns why the clone tier is not attempted, or empty
// when it should run.
func (o *Orchestrator) cloneSkipReason(req domain.TTSRequest, mockOnly bool) string {
	switch {
	case mockOnly:
		return "mock explicitly requested"
	case req.VoiceRefPath == "" && req.Provider != domain.ProviderVoiceClone:
		return "no voice reference supplied"
	case o.clone == nil || !o.clone.Configured():
		return "credential not configured"
	case req.VoiceRefPath == "":
		return "clone requested but no voice reference supplied"
	default:
		return ""
	}
}

func (o *Orchestrator) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	tierCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return fn(tierCtx)
}

func (o *Orchestrator) result(req domain.TTSRequest, provider domain.SpeechProvider, attempts []domain.Diagnostic) domain.TTSResult {
	return domain.TTSResult{
		AudioPath:    req.DestPath,
		DurationMs:   EstimateDurationMs(req.Text),
		ProviderUsed: provider,
		Attempts:     attempts,
	}
}

// EstimateDurationMs estimates narration length from word count at the
// fixed speaking rate.
func EstimateDurationMs(text string) int64 {
	words := int64(len(strings.Fields(text)))
	return words * 60000 / wordsPerMinute
}

func diag(tier string, action domain.DiagAction, reason string, elapsed time.Duration) domain.Diagnostic {
	return domain.Diagnostic{
		Stage:   "synthesis",
		Method:  tier,
		Action:  action,
		Reason:  reason,
		Elapsed: elapsed,
	}
}
