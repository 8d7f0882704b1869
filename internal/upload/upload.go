// Package upload pushes image bytes to a Cloudinary-style unsigned upload
// endpoint and returns the hosted URL.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

var ErrUploadFailed = errors.New("attachment upload failed")

type Client struct {
	httpClient *http.Client
	url        string
	preset     string
}

func NewClient(url, preset string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		preset:     preset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

// Upload posts data as a multipart form and returns the secure URL the
// provider assigned. The folder hint groups receipts and wallet icons on
// the provider side.
func (c *Client) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if err := mw.WriteField("upload_preset", c.preset); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if err := mw.WriteField("folder", folder); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, msg)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUploadFailed, err)
	}

	if ur.SecureURL == "" {
		return "", fmt.Errorf("%w: response carried no url", ErrUploadFailed)
	}

	return ur.SecureURL, nil
}
