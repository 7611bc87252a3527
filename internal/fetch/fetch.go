package fetch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/logger"
)

// Request identifies the source video to acquire. Platform only selects
// extraction logic inside a method; it never changes the fallback order.
type Request struct {
	URL      string
	Platform domain.Platform
}

// Method is one acquisition back-end. Fetch must write the media to
// dest, or return an error; partial files are the orchestrator's
// problem, not the method's.
type Method interface {
	Name() domain.AcquisitionMethod
	Fetch(ctx context.Context, req Request, dest string) error
}

// Orchestrator tries acquisition methods in the fixed priority order,
// stopping at the first verified success.
type Orchestrator struct {
	methods map[domain.AcquisitionMethod]Method
	timeout time.Duration
	log     *logger.Logger
}

func NewOrchestrator(timeout time.Duration, log *logger.Logger, methods ...Method) *Orchestrator {
	byName := make(map[domain.AcquisitionMethod]Method, len(methods))
	for _, m := range methods {
		byName[m.Name()] = m
	}
	return &Orchestrator{methods: byName, timeout: timeout, log: log}
}

// Download attempts every available method in priority order until one
// produces a verified non-empty file at dest. A single method's failure
// never aborts the operation; only exhausting the chain does. On
// failure no partial file is left behind.
func (o *Orchestrator) Download(ctx context.Context, caps domain.CapabilitySet, req Request, dest string) domain.DownloadResult {
	var attempts []domain.Diagnostic
	var failures []string
	attempted := 0

	for _, name := range domain.MethodPriority() {
		method, registered := o.methods[name]
		if !registered || !caps.Available(name) {
			attempts = append(attempts, domain.Diagnostic{
				Stage: "download", Method: string(name), Action: domain.DiagSkip,
				Reason: "capability unavailable",
			})
			continue
		}

		attempts = append(attempts, domain.Diagnostic{
			Stage: "download", Method: string(name), Action: domain.DiagAttempt,
		})
		attempted++

		start := time.Now()
		err := o.attempt(ctx, method, req, dest)
		elapsed := time.Since(start)

		if err != nil {
			// Whatever the method left behind is not trustworthy.
			removeIfExists(dest)

			o.log.Warn("download via %s failed for %s: %v", name, req.URL, err)
			attempts = append(attempts, domain.Diagnostic{
				Stage: "download", Method: string(name), Action: domain.DiagFail,
				Reason: err.Error(), Elapsed: elapsed,
			})
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))

			if ctx.Err() != nil {
				// Cancelled mid-chain: stop trying further methods.
				break
			}
			continue
		}

		o.log.Info("downloaded %s via %s (%s)", req.URL, name, elapsed.Round(time.Millisecond))
		attempts = append(attempts, domain.Diagnostic{
			Stage: "download", Method: string(name), Action: domain.DiagSuccess,
			Elapsed: elapsed,
		})
		return domain.DownloadResult{
			Success:    true,
			FilePath:   dest,
			MethodUsed: name,
			Attempts:   attempts,
		}
	}

	var errMsg string
	if attempted == 0 {
		errMsg = domain.ErrCapabilityUnavailable.Error()
	} else {
		errMsg = fmt.Sprintf("%s: %s", domain.ErrExhaustedFallback.Error(), strings.Join(failures, "; "))
	}

	return domain.DownloadResult{
		Success:  false,
		Error:    errMsg,
		Attempts: attempts,
	}
}

// attempt runs one method under the configured timeout and verifies the
// produced file. Verification failure counts as a method failure.
func (o *Orchestrator) attempt(ctx context.Context, method Method, req Request, dest string) error {
	methodCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := method.Fetch(methodCtx, req, dest); err != nil {
		return err
	}
	return verifyFile(dest)
}

// verifyFile distinguishes a truly successful download from a silently
// empty or missing one.
func verifyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVerification, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: file is empty", domain.ErrVerification)
	}
	return nil
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
}
