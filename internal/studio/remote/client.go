// Package remote talks to the storage, render, prediction and publish
// services over authenticated JSON/HTTPS.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/romariotrain/clip-studio/internal/studio/models"
)

const (
	DefaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

var ErrNotConfigured = errors.New("service url not configured")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int { return e.Code }

type Endpoints struct {
	Storage    string
	Render     string
	Prediction string
	Publish    string
}

type Client struct {
	endpoints Endpoints
	http      *http.Client
	logger    zerolog.Logger
}

func New(endpoints Endpoints, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoints: Endpoints{
			Storage:    strings.TrimRight(endpoints.Storage, "/"),
			Render:     strings.TrimRight(endpoints.Render, "/"),
			Prediction: strings.TrimRight(endpoints.Prediction, "/"),
			Publish:    strings.TrimRight(endpoints.Publish, "/"),
		},
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "remote_client").Logger(),
	}
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

func (c *Client) SubmitRender(ctx context.Context, cred models.Credentials, req models.RenderRequest) (string, error) {
	var resp submitResponse
	if err := c.doJSON(ctx, cred, http.MethodPost, c.endpoints.Render, "/render", req, &resp); err != nil {
		return "", err
	}
	if resp.JobID == "" {
		return "", fmt.Errorf("render service returned no job id")
	}
	return resp.JobID, nil
}

func (c *Client) GetRenderStatus(ctx context.Context, cred models.Credentials, jobID string) (models.JobStatusReport, error) {
	var report models.JobStatusReport
	err := c.doJSON(ctx, cred, http.MethodGet, c.endpoints.Render, "/render/"+url.PathEscape(jobID), nil, &report)
	return report, err
}

type videoBody struct {
	VideoURL string `json:"video_url"`
}

type scoreResponse struct {
	Score int `json:"score"`
}

func (c *Client) PredictViralScore(ctx context.Context, cred models.Credentials, videoURL string) (int, error) {
	var resp scoreResponse
	if err := c.doJSON(ctx, cred, http.MethodPost, c.endpoints.Prediction, "/predict", videoBody{VideoURL: videoURL}, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

func (c *Client) GetViralAnalysis(ctx context.Context, cred models.Credentials, videoURL string) (models.ViralScore, error) {
	var v models.ViralScore
	err := c.doJSON(ctx, cred, http.MethodPost, c.endpoints.Prediction, "/analysis", videoBody{VideoURL: videoURL}, &v)
	return v, err
}

func (c *Client) PublishToSocial(ctx context.Context, cred models.Credentials, req models.PublishRequest) (models.PublishReceipt, error) {
	var receipt models.PublishReceipt
	err := c.doJSON(ctx, cred, http.MethodPost, c.endpoints.Publish, "/publish", req, &receipt)
	return receipt, err
}

func (c *Client) doJSON(ctx context.Context, cred models.Credentials, method, base, path string, in, out any) error {
	if base == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, cred, out)
}

func (c *Client) do(req *http.Request, cred models.Credentials, out any) error {
	authorize(req, cred)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("remote call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: req.Method,
			URL:    req.URL.String(),
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(msg)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func authorize(req *http.Request, cred models.Credentials) {
	if cred.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}
	if cred.UserID != "" {
		req.Header.Set("X-User-ID", cred.UserID)
	}
}
