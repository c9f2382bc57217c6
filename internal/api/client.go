// Package api is the HTTP client for the external expense API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"smartexpense/internal/core"
)

const DefaultBaseURL = "http://localhost:8000/api"

// maxBodyBytes bounds how much of an upstream response is read.
const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// Ensure interface conformance
var _ Backend = (*Client)(nil)

// New returns a client for baseURL. A zero timeout leaves requests bounded only
// by the caller's context.
func New(baseURL string, timeout time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token. The email is sent as the
// OAuth2 "username" form field.
func (c *Client) Login(ctx context.Context, creds core.Credentials) (string, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	req, err := c.newRequest(ctx, http.MethodPost, "/token", "", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out tokenResponse
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty access_token in response")
	}
	return out.AccessToken, nil
}

func (c *Client) Register(ctx context.Context, reg core.Registration) (core.User, error) {
	var user core.User
	if err := c.sendJSON(ctx, http.MethodPost, "/register", "", reg, &user); err != nil {
		return core.User{}, fmt.Errorf("register: %w", err)
	}
	return user, nil
}

func (c *Client) Categories(ctx context.Context, token string) ([]core.Category, error) {
	var out []core.Category
	if err := c.get(ctx, "/getcategories", token, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (c *Client) Expenses(ctx context.Context, token string) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.get(ctx, "/getexpenses", token, &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (c *Client) AddExpense(ctx context.Context, token string, in core.ExpenseInput) (core.Expense, error) {
	var out core.Expense
	if err := c.sendJSON(ctx, http.MethodPost, "/addexpenses", token, in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("add expense: %w", err)
	}
	return out, nil
}

func (c *Client) EditExpense(ctx context.Context, token string, id int64, in core.ExpenseInput) (core.Expense, error) {
	var out core.Expense
	path := "/editexpenses/" + strconv.FormatInt(id, 10)
	if err := c.sendJSON(ctx, http.MethodPut, path, token, in, &out); err != nil {
		return core.Expense{}, fmt.Errorf("edit expense (id=%d): %w", id, err)
	}
	return out, nil
}

func (c *Client) DeleteExpense(ctx context.Context, token string, id int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/deleteexpenses/"+strconv.FormatInt(id, 10), token, nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete expense (id=%d): %w", id, err)
	}
	return nil
}

// MonthlySummary fetches the per-category report. The month is sent zero-padded.
func (c *Client) MonthlySummary(ctx context.Context, token string, year, month int) (core.Report, error) {
	q := url.Values{}
	q.Set("year", strconv.Itoa(year))
	q.Set("month", core.PadMonth(month))

	var out core.Report
	if err := c.get(ctx, "/reports/monthly_summary?"+q.Encode(), token, &out); err != nil {
		return core.Report{}, fmt.Errorf("monthly summary (year=%d, month=%d): %w", year, month, err)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, token, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	slog.DebugContext(req.Context(), "Upstream API call",
		"component", "api",
		"method", req.Method,
		"path", req.URL.Path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
