// Package gelato provides a client for the Gelato sponsored-call relay API.
package gelato

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/speedrun-hq/burn-relayer/pkg/logger"
)

const (
	// DefaultEndpoint is the public Gelato relay API
	DefaultEndpoint = "https://api.gelato.digital"

	sponsoredCallPath = "/relays/v2/sponsored-call"
	maxErrorBody      = 512
)

// SponsoredCallRequest is a relay request paid for by the sponsor's 1Balance
type SponsoredCallRequest struct {
	ChainID       int64          `json:"chainId"`
	Target        common.Address `json:"target"`
	Data          hexutil.Bytes  `json:"data"`
	SponsorAPIKey string         `json:"sponsorApiKey"`
}

// SponsoredCallResponse carries the task id assigned by the relay
type SponsoredCallResponse struct {
	TaskID string `json:"taskId"`
}

// APIError is returned when the relay answers with an error status or no task id
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gelato relay returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("gelato relay returned status %d: %s", e.StatusCode, e.Message)
}

// RateLimited reports whether the relay refused the request with "Too many requests"
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client represents a Gelato relay API client
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logger.Logger
}

// New creates a new Gelato relay client
func New(endpoint string, logger logger.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: createHTTPClient(),
		logger:     logger,
	}
}

// SponsoredCall submits one sponsored call and returns the relay task id
func (c *Client) SponsoredCall(ctx context.Context, req SponsoredCallRequest) (SponsoredCallResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("failed to encode sponsored call: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+sponsoredCallPath, bytes.NewReader(body))
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("failed to submit sponsored call: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("Failed to close response body: %v", err)
		}
	}(resp.Body)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SponsoredCallResponse{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(bodyBytes),
		}
	}

	var callResp SponsoredCallResponse
	if err := json.Unmarshal(bodyBytes, &callResp); err != nil {
		return SponsoredCallResponse{}, fmt.Errorf("failed to decode sponsored call response: %w", err)
	}
	if callResp.TaskID == "" {
		return SponsoredCallResponse{}, &APIError{
			StatusCode: resp.StatusCode,
			Message:    "response has no task id",
		}
	}

	c.logger.DebugWithChain(req.ChainID, "Sponsored call accepted, task %s", callResp.TaskID)
	return callResp, nil
}

// errorMessage extracts the relay's error message, falling back to the truncated raw body
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}

// Helper function to create an HTTP client with timeouts
func createHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
