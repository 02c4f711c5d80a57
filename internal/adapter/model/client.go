package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/delivery-eta-service/internal/domain"
	"github.com/couchcryptid/delivery-eta-service/internal/observability"
)

// Client implements domain.Predictor against a model server exposing
// POST /predict and GET /healthz.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a model server client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Source identifies this predictor in logs and prediction events.
func (c *Client) Source() string { return "model-server:" + c.baseURL }

// Predict sends one row and returns the first prediction. A 422 response is
// reported as domain.ErrSchemaMismatch.
func (c *Client) Predict(ctx context.Context, features domain.OrderFeatures) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Columns: features.Schema().Columns(),
		Rows:    [][]any{features.Row()},
	})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ModelServerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, fmt.Errorf("model server request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: %s", domain.ErrSchemaMismatch, bytes.TrimSpace(msg))
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("model server returned %d predictions for 1 row", len(out.Predictions))
	}

	c.logger.Debug("model server prediction", "model", out.Model, "eta_days", out.Predictions[0])
	return out.Predictions[0], nil
}

// CheckReadiness pings the model server health endpoint.
func (c *Client) CheckReadiness(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("model server health: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server health: status %d", resp.StatusCode)
	}
	return nil
}

// Model server wire types.

type predictRequest struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
	Model       string    `json:"model,omitempty"`
}
