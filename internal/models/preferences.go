package models

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// ModelSettings holds the selected remote model. APIKeys mirrors the legacy
// per-provider map; the key store is the source of truth for secrets.
type ModelSettings struct {
	SelectedModel string            `json:"selectedModel"`
	BaseURL       string            `json:"baseUrl"`
	APIKeys       map[string]string `json:"apiKeys"`
}

type OllamaSettings struct {
	BaseURL         string   `json:"baseUrl"`
	SelectedModel   string   `json:"selectedModel"`
	IsConnected     bool     `json:"isConnected"`
	AvailableModels []string `json:"availableModels"`
}

// Preferences is the persisted subset of the UI preferences.
type Preferences struct {
	Theme          Theme          `json:"theme"`
	Language       string         `json:"language"`
	ModelSettings  ModelSettings  `json:"modelSettings"`
	OllamaSettings OllamaSettings `json:"ollamaSettings"`
	LastSyncedAt   *time.Time     `json:"lastSyncedAt"`
}

// PreferencesState adds the in-flight flags, which are never persisted.
type PreferencesState struct {
	Preferences
	IsSaving  bool `json:"isSaving"`
	IsSyncing bool `json:"isSyncing"`
}

// ModelSettingsPatch is a shallow update; nil fields are left untouched.
type ModelSettingsPatch struct {
	SelectedModel *string           `json:"selectedModel,omitempty"`
	BaseURL       *string           `json:"baseUrl,omitempty"`
	APIKeys       map[string]string `json:"apiKeys,omitempty"`
}

type OllamaSettingsPatch struct {
	BaseURL         *string  `json:"baseUrl,omitempty"`
	SelectedModel   *string  `json:"selectedModel,omitempty"`
	IsConnected     *bool    `json:"isConnected,omitempty"`
	AvailableModels []string `json:"availableModels,omitempty"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:    ThemeSystem,
		Language: "en",
		ModelSettings: ModelSettings{
			SelectedModel: "gpt4o",
			BaseURL:       "https://api.openai.com/v1",
			APIKeys: map[string]string{
				string(ProviderOpenAI):   "",
				string(ProviderDeepSeek): "",
				string(ProviderClaude):   "",
				string(ProviderQwen):     "",
			},
		},
		OllamaSettings: OllamaSettings{
			BaseURL:         "http://localhost:11434",
			SelectedModel:   "qwen2",
			IsConnected:     false,
			AvailableModels: []string{},
		},
	}
}

// Clone returns a deep copy so snapshots can leave the owning service.
func (p Preferences) Clone() Preferences {
	out := p
	out.ModelSettings.APIKeys = make(map[string]string, len(p.ModelSettings.APIKeys))
	for k, v := range p.ModelSettings.APIKeys {
		out.ModelSettings.APIKeys[k] = v
	}
	out.OllamaSettings.AvailableModels = append([]string{}, p.OllamaSettings.AvailableModels...)
	if p.LastSyncedAt != nil {
		t := *p.LastSyncedAt
		out.LastSyncedAt = &t
	}
	return out
}
