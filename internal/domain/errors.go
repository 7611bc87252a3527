package domain

import "errors"

// ErrCapabilityUnavailable indicates no viable method or credential
// exists for a step. A configuration problem, not a transient one.
var ErrCapabilityUnavailable = errors.New("no acquisition method available")

// ErrExhaustedFallback indicates every available method was attempted
// and every one of them failed.
var ErrExhaustedFallback = errors.New("all acquisition methods failed")

// ErrInvalidInput indicates a malformed request (e.g. empty narration
// text). Fails fast; no fallback is attempted.
var ErrInvalidInput = errors.New("invalid input")

// ErrVerification indicates an artifact was produced but failed its
// integrity check. Treated like a method failure for fallback purposes.
var ErrVerification = errors.New("artifact verification failed")
