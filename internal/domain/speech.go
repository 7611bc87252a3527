package domain

// SpeechProvider identifies which tier of the synthesis fallback chain
// actually produced an audio artifact. Downstream billing/quality logic
// uses it to tell a degraded (mock) result from a real one.
type SpeechProvider string

const (
	ProviderVoiceClone SpeechProvider = "voice-clone"
	ProviderGeneric    SpeechProvider = "generic"
	ProviderMock       SpeechProvider = "mock"
)

// TTSRequest asks for narration audio at DestPath.
type TTSRequest struct {
	// Text to speak. Must be non-empty; the only input the synthesis
	// subsystem rejects outright.
	Text string `json:"text"`

	// DestPath is where the audio artifact is written.
	DestPath string `json:"destPath"`

	// Provider is an optional hint. "mock" suppresses the real backends;
	// other values are advisory only. A VoiceRefPath, when usable,
	// takes precedence over a non-clone hint.
	Provider SpeechProvider `json:"provider,omitempty"`

	// VoiceRefPath points at reference audio enabling voice cloning.
	VoiceRefPath string `json:"voiceRefPath,omitempty"`

	// VoiceID selects a generic-tier voice. Empty means the configured
	// default.
	VoiceID string `json:"voiceId,omitempty"`

	// Emotion is a preset forwarded to the clone backend.
	Emotion string `json:"emotion,omitempty"`
}

// TTSResult reports a synthesized artifact. AudioPath always points at
// an existing file on return; the subsystem never fails outward for
// non-empty text.
type TTSResult struct {
	AudioPath    string         `json:"audioPath"`
	DurationMs   int64          `json:"durationMs"`
	ProviderUsed SpeechProvider `json:"providerUsed"`
	Attempts     []Diagnostic   `json:"attempts,omitempty"`
}
