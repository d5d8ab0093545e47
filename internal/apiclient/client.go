// Package apiclient talks to the eventdesk scheduling backend and to model
// provider endpoints.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"eventdesk/internal/logging"
)

const (
	preferencesPath  = "preferences/"
	searchPath       = "search/"
	ollamaStatusPath = "ollama/status/"
	ollamaModelsPath = "ollama/models/"
)

// Backend is the subset of the backend API the stores depend on.
type Backend interface {
	GetPreferences(ctx context.Context) (*PreferencesPayload, error)
	UpdatePreferences(ctx context.Context, p PreferencesPayload) error
	Search(ctx context.Context, query string) ([]RawSearchResult, error)
	OllamaStatus(ctx context.Context, baseURL string) (bool, error)
	OllamaModels(ctx context.Context, baseURL string) ([]string, error)
}

// Client is the resty-backed Backend implementation.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

// New builds a client rooted at apiRoot, the versioned API base
// (e.g. http://127.0.0.1:8000/api/v1/).
func New(apiRoot string, timeout time.Duration, logger *zap.Logger) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(apiRoot, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c, log: logging.OrNop(logger).Named("apiclient")}
}

// GetPreferences fails with a BackendError when the envelope carries no data.
func (c *Client) GetPreferences(ctx context.Context) (*PreferencesPayload, error) {
	var out *PreferencesPayload
	if err := c.do(ctx, "get preferences", resty.MethodGet, preferencesPath, nil, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, &BackendError{Op: "get preferences", Message: "response carried no preferences"}
	}
	return out, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, p PreferencesPayload) error {
	return c.do(ctx, "update preferences", resty.MethodPatch, preferencesPath, nil, p, nil)
}

// Search returns the entries of the result array that are JSON objects.
// Anything else in the array is skipped, not treated as a decode failure.
func (c *Client) Search(ctx context.Context, query string) ([]RawSearchResult, error) {
	var items []json.RawMessage
	params := map[string]string{"q": query}
	if err := c.do(ctx, "search", resty.MethodGet, searchPath, params, nil, &items); err != nil {
		return nil, err
	}

	out := make([]RawSearchResult, 0, len(items))
	for i, item := range items {
		var r RawSearchResult
		if err := json.Unmarshal(item, &r); err != nil || r == nil {
			c.log.Debug("skipping non-object search entry", zap.Int("index", i))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) OllamaStatus(ctx context.Context, baseURL string) (bool, error) {
	var out ollamaStatus
	params := map[string]string{"base_url": baseURL}
	if err := c.do(ctx, "ollama status", resty.MethodGet, ollamaStatusPath, params, nil, &out); err != nil {
		return false, err
	}
	return out.IsConnected, nil
}

func (c *Client) OllamaModels(ctx context.Context, baseURL string) ([]string, error) {
	var out ollamaModels
	params := map[string]string{"base_url": baseURL}
	if err := c.do(ctx, "ollama models", resty.MethodGet, ollamaModelsPath, params, nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// do issues one request and unwraps the {success,data,error} envelope into out.
func (c *Client) do(ctx context.Context, op, method, path string, params map[string]string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, "/"+path)
	if err != nil {
		c.log.Debug("request failed", zap.String("op", op), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() {
		be := &BackendError{Op: op, StatusCode: resp.StatusCode()}
		if decodeErr == nil && env.Error != nil {
			be.Message = env.Error.Message
			be.Code = env.Error.Code
		}
		return be
	}
	if decodeErr != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if !env.Success {
		be := &BackendError{Op: op, StatusCode: resp.StatusCode(), Message: env.errorMessage()}
		if env.Error != nil {
			be.Code = env.Error.Code
		}
		return be
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// StatusCode extracts the HTTP status from a BackendError, or 0.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}
