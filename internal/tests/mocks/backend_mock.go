package mocks

import (
	"context"
	"sync"

	"eventdesk/internal/apiclient"
)

// BackendMock implements apiclient.Backend. Unset funcs succeed with zero
// values. Calls are recorded per method.
type BackendMock struct {
	GetPreferencesFunc    func(ctx context.Context) (*apiclient.PreferencesPayload, error)
	UpdatePreferencesFunc func(ctx context.Context, p apiclient.PreferencesPayload) error
	SearchFunc            func(ctx context.Context, query string) ([]apiclient.RawSearchResult, error)
	OllamaStatusFunc      func(ctx context.Context, baseURL string) (bool, error)
	OllamaModelsFunc      func(ctx context.Context, baseURL string) ([]string, error)

	mu      sync.Mutex
	calls   map[string]int
	updates []apiclient.PreferencesPayload
	queries []string
}

func (m *BackendMock) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[method]++
}

func (m *BackendMock) GetPreferences(ctx context.Context) (*apiclient.PreferencesPayload, error) {
	m.record("GetPreferences")
	if m.GetPreferencesFunc != nil {
		return m.GetPreferencesFunc(ctx)
	}
	return &apiclient.PreferencesPayload{}, nil
}

func (m *BackendMock) UpdatePreferences(ctx context.Context, p apiclient.PreferencesPayload) error {
	m.record("UpdatePreferences")
	m.mu.Lock()
	m.updates = append(m.updates, p)
	m.mu.Unlock()
	if m.UpdatePreferencesFunc != nil {
		return m.UpdatePreferencesFunc(ctx, p)
	}
	return nil
}

func (m *BackendMock) Search(ctx context.Context, query string) ([]apiclient.RawSearchResult, error) {
	m.record("Search")
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	return nil, nil
}

func (m *BackendMock) OllamaStatus(ctx context.Context, baseURL string) (bool, error) {
	m.record("OllamaStatus")
	if m.OllamaStatusFunc != nil {
		return m.OllamaStatusFunc(ctx, baseURL)
	}
	return false, nil
}

func (m *BackendMock) OllamaModels(ctx context.Context, baseURL string) ([]string, error) {
	m.record("OllamaModels")
	if m.OllamaModelsFunc != nil {
		return m.OllamaModelsFunc(ctx, baseURL)
	}
	return nil, nil
}

func (m *BackendMock) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *BackendMock) Updates() []apiclient.PreferencesPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]apiclient.PreferencesPayload{}, m.updates...)
}

func (m *BackendMock) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.queries...)
}

// ProviderCallerMock implements apiclient.ProviderCaller.
type ProviderCallerMock struct {
	PostFunc func(ctx context.Context, endpoint, apiKey string, payload any) (*apiclient.ProviderResponse, error)

	mu    sync.Mutex
	calls int
}

func (m *ProviderCallerMock) Post(ctx context.Context, endpoint, apiKey string, payload any) (*apiclient.ProviderResponse, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.PostFunc != nil {
		return m.PostFunc(ctx, endpoint, apiKey, payload)
	}
	return &apiclient.ProviderResponse{StatusCode: 200, Body: []byte(`{}`)}, nil
}

func (m *ProviderCallerMock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
