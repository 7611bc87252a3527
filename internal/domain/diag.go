package domain

import (
	"fmt"
	"time"
)

// DiagAction classifies a single fallback decision.
type DiagAction string

const (
	DiagSkip    DiagAction = "skip"    // method gated off by capability/credential
	DiagAttempt DiagAction = "attempt" // method/tier about to run
	DiagFail    DiagAction = "fail"    // attempt failed, continuing to next
	DiagSuccess DiagAction = "success" // attempt produced the artifact
)

// Diagnostic is one structured fallback event. The orchestrators emit
// one per decision so an operator can reconstruct exactly which methods
// were skipped, which ran, and why each failure happened.
type Diagnostic struct {
	Stage   string        `json:"stage"`  // "download" or "synthesis"
	Method  string        `json:"method"` // acquisition method or tts tier
	Action  DiagAction    `json:"action"`
	Reason  string        `json:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Reason == "" {
		return fmt.Sprintf("%s/%s: %s", d.Stage, d.Method, d.Action)
	}
	return fmt.Sprintf("%s/%s: %s (%s)", d.Stage, d.Method, d.Action, d.Reason)
}
