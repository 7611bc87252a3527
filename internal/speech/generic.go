package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TTSClient talks to a generic text-to-speech API: JSON request in,
// audio bytes out.
type TTSClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewTTSClient(baseURL, apiKey string) *TTSClient {
	return &TTSClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 3 * time.Minute},
	}
}

func (c *TTSClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

func (c *TTSClient) Synthesize(ctx context.Context, text, voiceID, dest string) error {
	payload, _ := json.Marshal(map[string]string{
		"input":           text,
		"voice":           voiceID,
		"response_format": "mp3",
	})

	url := fmt.Sprintf("%s/audio/speech", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("tts returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return writeAudio(dest, resp.Body)
}
