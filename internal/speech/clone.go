package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// CloneClient talks to the specialized voice-cloning service. The
// reference audio is uploaded alongside the text; the response body is
// the synthesized audio.
type CloneClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCloneClient(baseURL, apiKey string) *CloneClient {
	return &CloneClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

func (c *CloneClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.baseURL != ""
}

func (c *CloneClient) Synthesize(ctx context.Context, text, voiceRefPath, emotion, dest string) error {
	ref, err := os.Open(voiceRefPath)
	if err != nil {
		return fmt.Errorf("failed to open voice reference: %w", err)
	}
	defer ref.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("reference_audio", filepath.Base(voiceRefPath))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, ref); err != nil {
		return fmt.Errorf("failed to read voice reference: %w", err)
	}

	_ = form.WriteField("text", text)
	if emotion != "" {
		_ = form.WriteField("emotion", emotion)
	}
	if err := form.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/voice-clone/speech", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("voice-clone request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("voice-clone returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return writeAudio(dest, resp.Body)
}

// writeAudio streams provider audio to disk, removing the partial file
// on failure.
func writeAudio(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return f.Close()
}
