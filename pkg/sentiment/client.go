package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/platefinderz-backend/pkg/config"
)

// Client calls the external sentiment scorer. Review writes treat scorer
// failures as score 0, so every method here just reports the error and lets
// the caller degrade.
type Client struct {
	baseURL string
	http    *http.Client
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Score float64 `json:"score"`
}

func New(cfg config.SentimentConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a scorer endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Score sends the text to the scorer and returns its sentiment in [-1, 1].
func (c *Client) Score(ctx context.Context, text string) (float64, error) {
	if !c.Enabled() {
		return 0, fmt.Errorf("sentiment scorer not configured")
	}

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("encoding analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("building analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling sentiment scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sentiment scorer returned status %d", resp.StatusCode)
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decoding analyze response: %w", err)
	}
	return decoded.Score, nil
}
