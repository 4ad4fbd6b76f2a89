package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

// APIError reports a non-success response from the embedding service.
// The caller decides whether to retry, the client never does.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedding service returned %d: %s", e.StatusCode, e.Body)
}

// Client calls the external inference service that turns an image into
// a feature vector. The vector's dimensionality is whatever the service
// is configured to produce, it is passed through untouched.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Embed posts the image and returns its embedding vector.
func (c *Client) Embed(ctx context.Context, image []byte, contentType string) ([]float64, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="image"`)
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return decodeVector(resp.Body)
}

// decodeVector accepts either a flat vector or a single-element batch
// wrapping one, the two shapes inference services commonly return.
func decodeVector(r io.Reader) ([]float64, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal(raw, &vector); err == nil {
		if len(vector) == 0 {
			return nil, fmt.Errorf("embedding service returned an empty vector")
		}
		return vector, nil
	}

	var batch [][]float64
	if err := json.Unmarshal(raw, &batch); err == nil {
		if len(batch) != 1 || len(batch[0]) == 0 {
			return nil, fmt.Errorf("embedding service returned %d vectors, want 1", len(batch))
		}
		return batch[0], nil
	}

	return nil, fmt.Errorf("embedding service returned an unexpected payload")
}
