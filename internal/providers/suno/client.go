// Package suno submits song generation jobs to a Suno-compatible HTTP API and
// normalizes the job status it reports.
package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers"
)

const (
	providerName = "suno"

	// DefaultBaseURL is used when Config.BaseURL is empty.
	DefaultBaseURL       = "https://api.sunoapi.org"
	defaultSubmitTimeout = 30 * time.Second
	defaultStatusTimeout = 10 * time.Second
	maxBodyBytes         = 1 << 20
)

// Config captures the runtime settings for the song provider.
type Config struct {
	APIKey        string
	BaseURL       string
	SubmitTimeout time.Duration
	StatusTimeout time.Duration
}

// SongRequest describes one custom generation.
type SongRequest struct {
	Lyrics           string
	StyleTags        string
	Title            string
	MakeInstrumental bool
}

// Job is the tracking handle returned by Submit.
type Job struct {
	ID     string
	Status domain.JobStatus
}

// Status is the normalized result of a status poll.
type Status struct {
	ID       string
	Status   domain.JobStatus
	AudioURL string
	ImageURL string
	Duration float64
	Error    string
}

// Client talks to the provider over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg: Config{
			APIKey:        strings.TrimSpace(cfg.APIKey),
			BaseURL:       strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			SubmitTimeout: cfg.SubmitTimeout,
			StatusTimeout: cfg.StatusTimeout,
		},
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cfg.BaseURL == "" {
		c.cfg.BaseURL = DefaultBaseURL
	}
	if c.cfg.SubmitTimeout <= 0 {
		c.cfg.SubmitTimeout = defaultSubmitTimeout
	}
	if c.cfg.StatusTimeout <= 0 {
		c.cfg.StatusTimeout = defaultStatusTimeout
	}
	return c
}

type customGenerateRequest struct {
	Prompt           string `json:"prompt"`
	Tags             string `json:"tags"`
	Title            string `json:"title"`
	MakeInstrumental bool   `json:"make_instrumental"`
}

type jobPayload struct {
	ID       string  `json:"id"`
	Status   string  `json:"status"`
	AudioURL string  `json:"audio_url"`
	ImageURL string  `json:"image_url"`
	Duration float64 `json:"duration"`
	Error    string  `json:"error"`
}

// Submit starts an asynchronous generation and returns its job handle. It
// does not wait for the song to finish.
func (c *Client) Submit(ctx context.Context, req SongRequest) (Job, error) {
	body, err := json.Marshal(customGenerateRequest{
		Prompt:           req.Lyrics,
		Tags:             req.StyleTags,
		Title:            req.Title,
		MakeInstrumental: req.MakeInstrumental,
	})
	if err != nil {
		return Job{}, providers.Wrap(providerName, "submit", err)
	}
	job, err := c.do(ctx, "submit", c.cfg.SubmitTimeout, http.MethodPost, c.cfg.BaseURL+"/api/custom_generate", body)
	if err != nil {
		return Job{}, err
	}
	if strings.TrimSpace(job.ID) == "" {
		return Job{}, &providers.AdapterError{Provider: providerName, Op: "submit", Body: "response without job id", Err: providers.ErrGeneration}
	}
	return Job{ID: job.ID, Status: Normalize(job.Status, job.AudioURL, job.Error)}, nil
}

// GetStatus polls the provider for jobID and normalizes its status.
func (c *Client) GetStatus(ctx context.Context, jobID string) (Status, error) {
	u := c.cfg.BaseURL + "/api/get?ids=" + url.QueryEscape(jobID)
	job, err := c.do(ctx, "status", c.cfg.StatusTimeout, http.MethodGet, u, nil)
	if err != nil {
		return Status{}, err
	}
	return Status{
		ID:       job.ID,
		Status:   Normalize(job.Status, job.AudioURL, job.Error),
		AudioURL: job.AudioURL,
		ImageURL: job.ImageURL,
		Duration: job.Duration,
		Error:    job.Error,
	}, nil
}

// Normalize maps the provider's status vocabulary onto the four job states.
// Streaming or processing wins over everything else; an audio URL or an
// explicit complete means complete; an error or explicit error means failed.
func Normalize(status, audioURL, errMsg string) domain.JobStatus {
	switch s := strings.ToLower(strings.TrimSpace(status)); {
	case s == "streaming" || s == "processing":
		return domain.JobStatusProcessing
	case s == "complete" || audioURL != "":
		return domain.JobStatusComplete
	case s == "error" || errMsg != "":
		return domain.JobStatusFailed
	default:
		return domain.JobStatusPending
	}
}

func (c *Client) do(ctx context.Context, op string, timeout time.Duration, method, target string, body []byte) (jobPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return jobPayload{}, providers.Wrap(providerName, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return jobPayload{}, providers.Wrap(providerName, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return jobPayload{}, providers.Wrap(providerName, op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return jobPayload{}, &providers.AdapterError{
			Provider:   providerName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		}
	}
	job, err := decodeJob(raw)
	if err != nil {
		return jobPayload{}, &providers.AdapterError{Provider: providerName, Op: op, StatusCode: resp.StatusCode, Body: string(raw), Err: err}
	}
	return job, nil
}

// decodeJob accepts either a single job object or an array of jobs, in which
// case the first entry is used.
func decodeJob(raw []byte) (jobPayload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var jobs []jobPayload
		if err := json.Unmarshal(trimmed, &jobs); err != nil {
			return jobPayload{}, fmt.Errorf("decode job list: %w", err)
		}
		if len(jobs) == 0 {
			return jobPayload{}, fmt.Errorf("empty job list")
		}
		return jobs[0], nil
	}
	var job jobPayload
	if err := json.Unmarshal(trimmed, &job); err != nil {
		return jobPayload{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
