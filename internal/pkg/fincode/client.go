package fincode

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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsunagi-works/tsunagi/internal/pkg/env"
)

const defaultBaseURL = "https://api.test.fincode.jp"

const requestTimeout = 30 * time.Second

// APIError is the single failure type the client produces: transport
// failures, malformed response bodies and HTTP error statuses all end up
// here. The message for HTTP errors comes from the fincode error envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client wraps the fincode JSON API under a single bearer credential.
// Calls are synchronous, bounded by a fixed timeout, and never retried;
// mutating calls carry a fresh idempotency key purely as defense in depth
// against duplicate submission at the network layer.
type Client struct {
	apiKey  string
	baseURL string

	httpClient *http.Client
}

// NewClientFromEnv resolves the bearer credential and base URL from the
// process configuration. The credential is required; construction fails
// without one.
func NewClientFromEnv() (*Client, error) {
	apiKey := env.GetFirst("",
		"FINCODE_API_KEY",
		"FINCODE_SECRET_KEY",
		"FINCODE_PRIVATE_KEY",
		"secret_key",
		"SECRET_KEY",
	)
	if apiKey == "" {
		return nil, errors.New("FINCODE API key (FINCODE_API_KEY/FINCODE_SECRET_KEY) is not configured")
	}

	baseURL := env.GetFirst(defaultBaseURL, "FINCODE_BASE_URL", "FINCODE_API_BASE_URL")

	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}, nil
}

// NewClient builds a client against an explicit endpoint; used by tests.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *Client) request(ctx context.Context, method, path string, body any, query url.Values) (map[string]any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	isMutating := method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
	if isMutating {
		if body == nil {
			body = map[string]any{}
		}
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &APIError{Message: fmt.Sprintf("failed to encode request body for fincode: %v", err)}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if isMutating {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
		req.Header.Set("idempotent_key", uuid.NewString())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Message: fmt.Sprintf("fincode request failed: %v", err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))

	var data map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: "invalid fincode response format"}
		}
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}

	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// errorMessage extracts the provider error envelope: a top-level
// error_message, else the first entry of an errors array, else a generic
// string.
func errorMessage(data map[string]any) string {
	if msg, ok := data["error_message"].(string); ok && msg != "" {
		return msg
	}
	if items, ok := data["errors"].([]any); ok && len(items) > 0 {
		if first, ok := items[0].(map[string]any); ok {
			if msg, ok := first["error_message"].(string); ok && msg != "" {
				return msg
			}
		}
	}
	return "fincode API error"
}

func (c *Client) CreateCustomer(ctx context.Context, name, email string) (map[string]any, error) {
	return c.request(ctx, http.MethodPost, "/v1/customers", map[string]any{
		"name":  name,
		"email": email,
	}, nil)
}

func (c *Client) GetCustomer(ctx context.Context, customerID string) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerID), nil, nil)
}

func (c *Client) ListCards(ctx context.Context, customerID string, limit int) (map[string]any, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.request(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerID)+"/cards", nil, query)
}

func (c *Client) GetCard(ctx context.Context, customerID, cardID string) (map[string]any, error) {
	return c.request(ctx, http.MethodGet, "/v1/customers/"+url.PathEscape(customerID)+"/cards/"+url.PathEscape(cardID), nil, nil)
}

// CreateCard registers the token as the customer's default card.
func (c *Client) CreateCard(ctx context.Context, customerID, token string) (map[string]any, error) {
	return c.request(ctx, http.MethodPost, "/v1/customers/"+url.PathEscape(customerID)+"/cards", map[string]any{
		"token":        token,
		"default_flag": "1",
	}, nil)
}

func (c *Client) DeleteCard(ctx context.Context, customerID, cardID string) (map[string]any, error) {
	return c.request(ctx, http.MethodDelete, "/v1/customers/"+url.PathEscape(customerID)+"/cards/"+url.PathEscape(cardID), nil, nil)
}

func (c *Client) GetPlans(ctx context.Context, limit int) (map[string]any, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.request(ctx, http.MethodGet, "/v1/plans", nil, query)
}

func (c *Client) CreateSubscription(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.request(ctx, http.MethodPost, "/v1/subscriptions", payload, nil)
}

func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (map[string]any, error) {
	query := url.Values{}
	query.Set("pay_type", "Card")
	return c.request(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, query)
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (map[string]any, error) {
	query := url.Values{}
	query.Set("pay_type", "Card")
	return c.request(ctx, http.MethodDelete, "/v1/subscriptions/"+url.PathEscape(subscriptionID), nil, query)
}

// GetResults fetches recent billing results for a subscription.
func (c *Client) GetResults(ctx context.Context, subscriptionID string, limit int) (map[string]any, error) {
	query := url.Values{}
	query.Set("pay_type", "Card")
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.request(ctx, http.MethodGet, "/v1/subscriptions/"+url.PathEscape(subscriptionID)+"/result", nil, query)
}
