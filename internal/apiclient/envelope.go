package apiclient

import "encoding/json"

// envelope is the backend's standard response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *errorBody      `json:"error"`
}

type errorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
}

func (e envelope) errorMessage() string {
	if e.Error == nil {
		return ""
	}
	return e.Error.Message
}

// PreferencesPayload is the remote subset of the preferences, as sent and received.
type PreferencesPayload struct {
	Theme          string               `json:"theme"`
	Language       string               `json:"language"`
	ModelSettings  *RemoteModelSettings `json:"model_settings,omitempty"`
	OllamaSettings *RemoteOllama        `json:"ollama_settings,omitempty"`
}

type RemoteModelSettings struct {
	SelectedModel string `json:"selectedModel"`
	BaseURL       string `json:"baseUrl"`
}

type RemoteOllama struct {
	BaseURL       string `json:"baseUrl"`
	SelectedModel string `json:"selectedModel"`
}

// RawSearchResult is a result as received; fields are validated by the caller.
type RawSearchResult map[string]any

type ollamaStatus struct {
	IsConnected bool `json:"is_connected"`
}

type ollamaModels struct {
	Models []string `json:"models"`
}
