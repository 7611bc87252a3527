package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clipwash/clipwash/internal/domain"
	"github.com/clipwash/clipwash/internal/infra/config"
)

const sessionPollInterval = 3 * time.Second

// RemoteBrowser acquires media through a managed browser-session
// service: start a capture session for the page URL, poll until the
// service has resolved the underlying media URL, then stream it down.
type RemoteBrowser struct {
	cfg    config.RemoteBrowserConfig
	client *http.Client
}

func NewRemoteBrowser(cfg config.RemoteBrowserConfig) *RemoteBrowser {
	return &RemoteBrowser{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

func (r *RemoteBrowser) Name() domain.AcquisitionMethod { return domain.MethodRemoteBrowser }

func (r *RemoteBrowser) Fetch(ctx context.Context, req Request, dest string) error {
	sessionID, err := r.startSession(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to start capture session: %w", err)
	}

	mediaURL, err := r.waitForMedia(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("capture session %s: %w", sessionID, err)
	}

	return saveURL(ctx, r.client, mediaURL, dest)
}

func (r *RemoteBrowser) startSession(ctx context.Context, req Request) (string, error) {
	input := map[string]any{
		"url":      req.URL,
		"platform": string(req.Platform),
	}
	if r.cfg.ProjectID != "" {
		input["projectId"] = r.cfg.ProjectID
	}
	body, _ := json.Marshal(input)

	url := fmt.Sprintf("%s/capture-sessions", r.cfg.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("service returned no session id")
	}

	return result.Data.ID, nil
}

// waitForMedia polls the session until the service reports a terminal
// status. The caller's context bounds the total wait.
func (r *RemoteBrowser) waitForMedia(ctx context.Context, sessionID string) (string, error) {
	statusURL := fmt.Sprintf("%s/capture-sessions/%s", r.cfg.BaseURL, sessionID)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(sessionPollInterval):
		}

		httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		httpReq.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
		resp, err := r.client.Do(httpReq)
		if err != nil {
			return "", err
		}

		var status struct {
			Data struct {
				Status   string `json:"status"`
				MediaURL string `json:"mediaUrl"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			resp.Body.Close()
			return "", err
		}
		resp.Body.Close()

		switch status.Data.Status {
		case "SUCCEEDED":
			if status.Data.MediaURL == "" {
				return "", fmt.Errorf("session succeeded but returned no media url")
			}
			return status.Data.MediaURL, nil
		case "FAILED", "ABORTED", "TIMED-OUT":
			return "", fmt.Errorf("session ended with status %s", status.Data.Status)
		}
		// Still running, keep polling.
	}
}
