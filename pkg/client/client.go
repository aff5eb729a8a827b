package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/event-wizard/internal/models"
	"github.com/terra-clan/event-wizard/internal/wizard"
)

// Client is a Go SDK for the event-wizard API
type Client struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithPollInterval sets how often WaitForSubmission polls the session
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// NewClient creates a new event-wizard client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pollInterval: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported by the API
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsCode reports whether err is an APIError with the given code
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// ListOptions contains options for list calls
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) apply(q url.Values) {
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
}

// CreateWizard starts a new wizard session
func (c *Client) CreateWizard(ctx context.Context, metadata map[string]string) (*models.WizardSession, error) {
	var ws *models.WizardSession
	err := c.call(ctx, http.MethodPost, "/api/v1/wizards", models.CreateSessionRequest{Metadata: metadata}, &ws)
	return ws, err
}

// GetWizard retrieves a wizard session by ID
func (c *Client) GetWizard(ctx context.Context, id string) (*models.WizardSession, error) {
	var ws *models.WizardSession
	err := c.call(ctx, http.MethodGet, "/api/v1/wizards/"+url.PathEscape(id), nil, &ws)
	return ws, err
}

// ListWizards lists wizard sessions, optionally filtered by submission state
func (c *Client) ListWizards(ctx context.Context, submission models.SubmissionState, opts ListOptions) ([]*models.SessionSummary, error) {
	q := url.Values{}
	if submission != "" {
		q.Set("submission", string(submission))
	}
	opts.apply(q)

	var result struct {
		Wizards []*models.SessionSummary `json:"wizards"`
	}
	err := c.call(ctx, http.MethodGet, "/api/v1/wizards?"+q.Encode(), nil, &result)
	return result.Wizards, err
}

// DeleteWizard removes a wizard session
func (c *Client) DeleteWizard(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/api/v1/wizards/"+url.PathEscape(id), nil, nil)
}

// SubmitStep submits the field-group of step. data is marshalled as JSON.
func (c *Client) SubmitStep(ctx context.Context, id string, step models.Step, data interface{}) (*models.WizardSession, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal step data: %w", err)
	}

	var ws *models.WizardSession
	path := fmt.Sprintf("/api/v1/wizards/%s/steps/%s", url.PathEscape(id), step)
	err = c.call(ctx, http.MethodPut, path, models.StepSubmitRequest{Data: raw}, &ws)
	return ws, err
}

// Back moves to the step before step
func (c *Client) Back(ctx context.Context, id string, step models.Step) (*models.NavigationResponse, error) {
	var resp *models.NavigationResponse
	path := fmt.Sprintf("/api/v1/wizards/%s/steps/%s/back", url.PathEscape(id), step)
	err := c.call(ctx, http.MethodPost, path, nil, &resp)
	return resp, err
}

// Navigate applies a location token such as "#dates"
func (c *Client) Navigate(ctx context.Context, id, location string) (*models.NavigationResponse, error) {
	var resp *models.NavigationResponse
	path := fmt.Sprintf("/api/v1/wizards/%s/navigate", url.PathEscape(id))
	err := c.call(ctx, http.MethodPost, path, models.NavigateRequest{Location: location}, &resp)
	return resp, err
}

// Review returns the composite review record
func (c *Client) Review(ctx context.Context, id string) (*wizard.Review, error) {
	var review *wizard.Review
	path := fmt.Sprintf("/api/v1/wizards/%s/review", url.PathEscape(id))
	err := c.call(ctx, http.MethodGet, path, nil, &review)
	return review, err
}

// Confirm schedules event creation from the review step
func (c *Client) Confirm(ctx context.Context, id string) (*models.WizardSession, error) {
	var ws *models.WizardSession
	path := fmt.Sprintf("/api/v1/wizards/%s/confirm", url.PathEscape(id))
	err := c.call(ctx, http.MethodPost, path, nil, &ws)
	return ws, err
}

// WaitForSubmission polls the session until its submission is no longer
// pending or ctx is done
func (c *Client) WaitForSubmission(ctx context.Context, id string) (*models.WizardSession, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		ws, err := c.GetWizard(ctx, id)
		if err != nil {
			return nil, err
		}
		if ws.Submission.State != models.SubmissionPending {
			return ws, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Categories returns the event categories
func (c *Client) Categories(ctx context.Context) ([]*models.Category, error) {
	var result struct {
		Categories []*models.Category `json:"categories"`
	}
	err := c.call(ctx, http.MethodGet, "/api/v1/catalog/categories", nil, &result)
	return result.Categories, err
}

// ProhibitedItems returns the prohibited items catalog
func (c *Client) ProhibitedItems(ctx context.Context) ([]*models.ProhibitedItem, error) {
	var result struct {
		Items []*models.ProhibitedItem `json:"items"`
	}
	err := c.call(ctx, http.MethodGet, "/api/v1/catalog/prohibited-items", nil, &result)
	return result.Items, err
}

// Steps returns step metadata in wizard order
func (c *Client) Steps(ctx context.Context) ([]*models.StepInfo, error) {
	var result struct {
		Steps []*models.StepInfo `json:"steps"`
	}
	err := c.call(ctx, http.MethodGet, "/api/v1/catalog/steps", nil, &result)
	return result.Steps, err
}

// ListEvents lists created events, optionally filtered by category
func (c *Client) ListEvents(ctx context.Context, category string, opts ListOptions) ([]*models.Event, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	opts.apply(q)

	var result struct {
		Events []*models.Event `json:"events"`
	}
	err := c.call(ctx, http.MethodGet, "/api/v1/events?"+q.Encode(), nil, &result)
	return result.Events, err
}

// GetEvent retrieves a created event by ID
func (c *Client) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var ev *models.Event
	err := c.call(ctx, http.MethodGet, "/api/v1/events/"+url.PathEscape(id), nil, &ev)
	return ev, err
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// call performs a request and decodes the data of the response envelope
// into out. Error envelopes are returned as *APIError.
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if !result.Success {
		if result.Error == nil {
			result.Error = &APIError{Code: "unknown", Message: http.StatusText(resp.StatusCode)}
		}
		result.Error.Status = resp.StatusCode
		return result.Error
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
