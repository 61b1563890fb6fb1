package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// Client talks to the budgeting service over JSON HTTP with bearer auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the service at baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type goalListResponse struct {
	Items []Goal `json:"items"`
	Total int    `json:"total"`
}

type categoryListResponse struct {
	Items []Category `json:"items"`
	Total int        `json:"total"`
}

type detailBody struct {
	Detail string `json:"detail"`
}

// do runs one JSON round trip. A nil in sends no body; a nil out discards
// the response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var detail detailBody
		if err := json.Unmarshal(data, &detail); err == nil && detail.Detail != "" {
			return &Error{StatusCode: resp.StatusCode, Message: detail.Detail}
		}
		return &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListGoals returns every goal, newest first.
func (c *Client) ListGoals(ctx context.Context) ([]Goal, error) {
	var resp goalListResponse
	if err := c.do(ctx, http.MethodGet, "/goals", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateGoal creates a goal and returns it as the service stored it.
func (c *Client) CreateGoal(ctx context.Context, in GoalCreate) (*Goal, error) {
	if in.Accounts == nil {
		in.Accounts = []GoalAccountRef{}
	}
	var g Goal
	if err := c.do(ctx, http.MethodPost, "/goals", in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGoal applies a partial update and returns the updated goal.
func (c *Client) UpdateGoal(ctx context.Context, id string, in GoalUpdate) (*Goal, error) {
	var g Goal
	if err := c.do(ctx, http.MethodPut, "/goals/"+id, in, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/goals/"+id, nil, nil)
}

// ListLinkedItems returns the bank connections known to the service.
func (c *Client) ListLinkedItems(ctx context.Context) ([]LinkedItem, error) {
	var items []LinkedItem
	if err := c.do(ctx, http.MethodGet, "/simplefin/items", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemAccounts returns the accounts under one linked item.
func (c *Client) ListItemAccounts(ctx context.Context, itemID string) ([]Account, error) {
	var accounts []Account
	if err := c.do(ctx, http.MethodGet, "/simplefin/accounts/"+itemID, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SeedDefaultCategories creates the service's default category set with an
// even budget split across expense categories.
func (c *Client) SeedDefaultCategories(ctx context.Context, in SeedDefaultsRequest) (*SeedDefaultsResult, error) {
	if in.AccountIDs == nil {
		in.AccountIDs = []string{}
	}
	var res SeedDefaultsResult
	if err := c.do(ctx, http.MethodPost, "/categories/seed-defaults", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListCategories returns the category tree with subcategories attached.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var resp categoryListResponse
	if err := c.do(ctx, http.MethodGet, "/categories/tree", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// CreateSubcategory adds a subcategory under a category.
func (c *Client) CreateSubcategory(ctx context.Context, categoryID string, in SubcategoryCreate) (*Subcategory, error) {
	var sub Subcategory
	if err := c.do(ctx, http.MethodPost, "/categories/"+categoryID+"/subcategories", in, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
