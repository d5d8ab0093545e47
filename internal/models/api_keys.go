package models

import "time"

type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
	ProviderClaude   Provider = "claude"
	ProviderQwen     Provider = "qwen"
)

// Providers lists the supported providers in display order.
var Providers = []Provider{ProviderOpenAI, ProviderDeepSeek, ProviderClaude, ProviderQwen}

// APIKeys is the persisted key store layout.
type APIKeys struct {
	Keys     map[Provider]string    `json:"keys"`
	LastUsed map[Provider]time.Time `json:"lastUsed"`
}

func EmptyAPIKeys() APIKeys {
	keys := make(map[Provider]string, len(Providers))
	for _, p := range Providers {
		keys[p] = ""
	}
	return APIKeys{Keys: keys, LastUsed: map[Provider]time.Time{}}
}

// APIKeysSummary is what observers and the UI get to see: never the keys themselves.
type APIKeysSummary struct {
	ActiveProviders []Provider             `json:"activeProviders"`
	LastUsed        map[Provider]time.Time `json:"lastUsed"`
}
