package rest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/service/job"
)

// Client calls the HTTP API. It is used by the command line clients.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Start starts a job for an object already in the bucket.
func (c *Client) Start(ctx context.Context, fileName string) (*models.StartResponse, error) {
	var out models.StartResponse
	err := c.do(ctx, http.MethodGet, "/start?filename="+url.QueryEscape(fileName), nil, &out)
	return &out, err
}

// Upload sends raw audio Base64 encoded.
func (c *Client) Upload(ctx context.Context, audio []byte, wait bool) (*models.UploadResponse, error) {
	body, err := json.Marshal(models.UploadRequest{
		Audio: base64.StdEncoding.EncodeToString(audio),
		Wait:  wait,
	})
	if err != nil {
		return nil, err
	}
	var out models.UploadResponse
	err = c.do(ctx, http.MethodPost, "/upload", body, &out)
	return &out, err
}

// Status returns the current job status.
func (c *Client) Status(ctx context.Context, jobName string) (*models.StatusResponse, error) {
	var out models.StatusResponse
	err := c.do(ctx, http.MethodGet, "/status?job="+url.QueryEscape(jobName), nil, &out)
	return &out, err
}

// WaitForResult polls Status every interval until the job is terminal or
// ctx is done.
func (c *Client) WaitForResult(ctx context.Context, jobName string, interval time.Duration, onStatus func(*models.StatusResponse)) (*models.StatusResponse, error) {
	var last *models.StatusResponse
	_, err := job.NewPoller(interval, 0).Wait(ctx, func(ctx context.Context) (job.Status, error) {
		resp, err := c.Status(ctx, jobName)
		if err != nil {
			return "", err
		}
		last = resp
		if onStatus != nil {
			onStatus(resp)
		}
		return job.ParseStatus(resp.Status)
	})
	return last, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
