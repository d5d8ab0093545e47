package apiclient

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ProviderResponse is the raw result of a provider call.
type ProviderResponse struct {
	StatusCode int
	Body       []byte
}

// ProviderCaller issues authenticated calls to model provider endpoints.
type ProviderCaller interface {
	Post(ctx context.Context, endpoint, apiKey string, payload any) (*ProviderResponse, error)
}

type ProviderClient struct {
	http *resty.Client
}

func NewProviderClient(timeout time.Duration) *ProviderClient {
	c := resty.New().SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &ProviderClient{http: c}
}

// Post sends payload as JSON with a bearer token. Non-2xx responses come back
// as *BackendError carrying the status code.
func (p *ProviderClient) Post(ctx context.Context, endpoint, apiKey string, payload any) (*ProviderResponse, error) {
	rr, err := p.http.R().SetContext(ctx).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return nil, &TransportError{Op: "provider call", Err: err}
	}
	if rr.IsError() {
		msg := rr.Status()
		if rr.StatusCode() == http.StatusUnauthorized {
			msg = "unauthorized"
		}
		return nil, &BackendError{Op: "provider call", StatusCode: rr.StatusCode(), Message: msg}
	}
	return &ProviderResponse{StatusCode: rr.StatusCode(), Body: rr.Body()}, nil
}
