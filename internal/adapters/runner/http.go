package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/manthysbr/modelpilot/internal/core/domain"
)

// HTTPRunner hands tasks to an operator-provided execution service.
// The service receives the resource descriptor and the task, talks to the
// backend however it likes, and answers with the observed outcome.
type HTTPRunner struct {
	client   *http.Client
	endpoint string
	token    string
}

func NewHTTPRunner(endpoint, token string, timeout time.Duration) *HTTPRunner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPRunner{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		token:    token,
	}
}

type hookRequest struct {
	Resource domain.Resource `json:"resource"`
	Task     domain.Task     `json:"task"`
}

type hookResponse struct {
	domain.TaskOutcome
	Error string `json:"error,omitempty"`
}

// Run posts the task and decodes the outcome. A hook that reports no quality
// is credited with the resource's nominal accuracy.
func (p *HTTPRunner) Run(ctx context.Context, res domain.Resource, task domain.Task) (domain.TaskOutcome, error) {
	payload, err := json.Marshal(hookRequest{Resource: res, Task: task})
	if err != nil {
		return domain.TaskOutcome{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.TaskOutcome{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return domain.TaskOutcome{}, fmt.Errorf("failed to call execution hook: %w", err)
	}
	defer resp.Body.Close()
	latency := float64(time.Since(start).Microseconds()) / 1000

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.TaskOutcome{LatencyMs: latency}, fmt.Errorf("execution hook returned status %d: %s", resp.StatusCode, string(body))
	}

	var result hookResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return domain.TaskOutcome{LatencyMs: latency}, fmt.Errorf("failed to decode response: %w", err)
	}

	outcome := result.TaskOutcome
	if outcome.LatencyMs <= 0 {
		outcome.LatencyMs = latency
	}
	if result.Error != "" {
		return outcome, fmt.Errorf("execution hook: %s", result.Error)
	}
	if outcome.Quality <= 0 {
		outcome.Quality = res.Performance.Accuracy
	}
	return outcome, nil
}
