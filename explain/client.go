package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/liamcoop/titanic-whatif/internal/logger"
	"github.com/liamcoop/titanic-whatif/passenger"
)

// HTTPExplainer calls the SHAP sidecar that hosts the trained XGBoost model
type HTTPExplainer struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewHTTPExplainer creates a client for the sidecar at baseURL
func NewHTTPExplainer(baseURL string, timeout time.Duration, maxRetries int) *HTTPExplainer {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HTTPExplainer{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: maxRetries,
		backoff:    200 * time.Millisecond,
	}
}

type explainRequest struct {
	FeatureNames []string    `json:"feature_names"`
	Rows         [][]float64 `json:"rows"`
}

type explainResponse struct {
	BaseValue  float64     `json:"base_value"`
	ShapValues [][]float64 `json:"shap_values"`
}

// Explain asks the sidecar for the SHAP values of one passenger
func (c *HTTPExplainer) Explain(ctx context.Context, p passenger.Profile) (*Explanation, error) {
	body, err := json.Marshal(explainRequest{
		FeatureNames: passenger.FeatureNames,
		Rows:         [][]float64{p.Row()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var resp explainResponse
	if err := c.do(ctx, http.MethodPost, "/shap", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.ShapValues) != 1 {
		return nil, fmt.Errorf("explainer returned %d rows, want 1", len(resp.ShapValues))
	}

	return NewExplanation(resp.BaseValue, passenger.FeatureNames, resp.ShapValues[0], p.Row())
}

// Sample fetches the SHAP values the sidecar computed over its test-set sample
func (c *HTTPExplainer) Sample(ctx context.Context) (*Sample, error) {
	var sample Sample
	if err := c.do(ctx, http.MethodGet, "/shap/sample", nil, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

// do performs the request with retries on transport errors and 429/5xx responses
func (c *HTTPExplainer) do(ctx context.Context, method, path string, body []byte, out any) error {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			logger.WarnExplainerRetry(attempt, lastErr)
			wait := time.Duration(math.Pow(2, float64(attempt-1))) * c.backoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("explainer %s %s: status %d", method, path, resp.StatusCode)
			continue
		}
		if resp.StatusCode >= 400 {
			return fmt.Errorf("explainer %s %s: status %d: %s", method, path, resp.StatusCode, respBody)
		}

		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode explainer response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("explainer %s %s failed after %d attempts: %w", method, path, c.maxRetries, lastErr)
}
