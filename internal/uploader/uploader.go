// Package uploader pushes captured card-face images to the image CDN.
package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tapcardapp/tapcard/internal/observability"
)

type Client struct {
	uploadURL    string
	uploadPreset string
	httpClient   *http.Client
}

func NewClient(uploadURL, uploadPreset string) *Client {
	return &Client{
		uploadURL:    uploadURL,
		uploadPreset: uploadPreset,
		httpClient:   observability.NewHTTPClient(30 * time.Second),
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload sends the payload (a base64 data URI or raw bytes rendered as a
// form value) and returns the public URL. publicID names the stored asset;
// the checkout flow passes the payment intent ID so retries overwrite
// instead of duplicating.
func (c *Client) Upload(ctx context.Context, payload, publicID string) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is required")
	}
	if strings.TrimSpace(payload) == "" {
		return "", fmt.Errorf("payload is required")
	}

	var body strings.Builder
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("file", payload); err != nil {
		return "", fmt.Errorf("failed to write file field: %w", err)
	}
	if err := writer.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", fmt.Errorf("failed to write upload_preset field: %w", err)
	}
	if publicID != "" {
		if err := writer.WriteField("public_id", publicID); err != nil {
			return "", fmt.Errorf("failed to write public_id field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("upload service returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("upload service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if decoded.SecureURL == "" {
		return "", fmt.Errorf("upload response missing secure_url")
	}

	return decoded.SecureURL, nil
}
