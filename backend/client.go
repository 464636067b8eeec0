// Package backend is the HTTP client for the proctoring server. It implements
// the collaborator contracts the core depends on: the per-type violation
// endpoint, the three-deep submission endpoint chain, and the read-only
// violations summary.
package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vigil/submit"
	"vigil/violation"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend %s %s: %d: %s", method, path, resp.StatusCode, snippet(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("backend response parse error: %w", err)
		}
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}

type violationRequest struct {
	SessionID string         `json:"session_id"`
	Details   map[string]any `json:"details,omitempty"`
}

type violationResponse struct {
	Success bool `json:"success"`
}

// LogViolation persists one violation. It satisfies violation.Backend: a
// transport error or success=false reports failure without touching any
// aggregator state.
func (c *Client) LogViolation(sessionID string, vtype violation.Type, details map[string]any) (bool, error) {
	var resp violationResponse
	path := "/api/violations/" + string(vtype)
	if err := c.do(http.MethodPost, path, violationRequest{SessionID: sessionID, Details: details}, &resp); err != nil {
		return false, err
	}
	return resp.Success, nil
}

// Submit posts to the primary submission endpoint.
func (c *Client) Submit(sessionID int, p submit.Payload) (*submit.Result, error) {
	var res submit.Result
	if err := c.do(http.MethodPost, "/api/sessions/submit", p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitScoped posts to the session-scoped submission variant.
func (c *Client) SubmitScoped(sessionID int, p submit.Payload) (*submit.Result, error) {
	var res submit.Result
	path := fmt.Sprintf("/api/sessions/%d/submit", sessionID)
	if err := c.do(http.MethodPost, path, p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Terminate posts to the session-termination endpoint, which also accepts
// post-hoc score fields. Last link of the submission chain.
func (c *Client) Terminate(sessionID int, p submit.Payload) (*submit.Result, error) {
	var res submit.Result
	path := fmt.Sprintf("/api/sessions/%d/end", sessionID)
	if err := c.do(http.MethodPost, path, p, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitChain returns the ordered endpoint chain for the submission engine:
// primary, session-scoped, terminate.
func (c *Client) SubmitChain() []submit.SubmitFunc {
	return []submit.SubmitFunc{c.Submit, c.SubmitScoped, c.Terminate}
}

// SummaryResponse is the server-side per-type violation rollup, used for
// reconciliation against the local tally.
type SummaryResponse struct {
	SessionID int            `json:"session_id"`
	Total     int            `json:"total"`
	ByType    map[string]int `json:"by_type"`
}

// ViolationSummary fetches the server's per-type violation counts.
func (c *Client) ViolationSummary(sessionID int) (*SummaryResponse, error) {
	var res SummaryResponse
	path := fmt.Sprintf("/api/sessions/%d/violations/summary", sessionID)
	if err := c.do(http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
