package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventdesk/internal/events"
	"eventdesk/internal/logging"
	"eventdesk/internal/models"
	"eventdesk/internal/repositories"
)

var keyPrefixes = map[models.Provider]string{
	models.ProviderOpenAI:   "sk-",
	models.ProviderDeepSeek: "dsk-",
	models.ProviderClaude:   "sk-",
	models.ProviderQwen:     "qwk-",
}

// APIKeyService is the canonical store for provider API keys. Keys live only
// in the local tier and are never sent to the backend.
type APIKeyService struct {
	ctx  context.Context
	repo repositories.LocalStateRepository
	log  *zap.Logger
	now  func() time.Time

	mu    sync.Mutex
	state models.APIKeys

	listeners events.Listeners[models.APIKeysSummary]
}

func NewAPIKeyService(repo repositories.LocalStateRepository, logger *zap.Logger) *APIKeyService {
	s := &APIKeyService{
		ctx:   context.Background(),
		repo:  repo,
		log:   logging.OrNop(logger).Named("apikeys"),
		now:   time.Now,
		state: models.EmptyAPIKeys(),
	}
	s.hydrate()
	return s
}

func (s *APIKeyService) Startup(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *APIKeyService) hydrate() {
	stored := models.EmptyAPIKeys()
	found, err := loadState(s.ctx, s.repo, apiKeysNamespace, &stored)
	if err != nil {
		s.log.Warn("falling back to empty key store", zap.Error(err))
		return
	}
	if !found {
		return
	}
	if stored.Keys == nil {
		stored.Keys = models.EmptyAPIKeys().Keys
	}
	if stored.LastUsed == nil {
		stored.LastUsed = map[models.Provider]time.Time{}
	}
	s.state = stored
}

func (s *APIKeyService) HasKey(provider models.Provider) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Keys[provider] != ""
}

// GetKey returns the stored key and records the use. ok is false when no key is set.
func (s *APIKeyService) GetKey(provider models.Provider) (key string, ok bool) {
	s.mu.Lock()
	key = s.state.Keys[provider]
	if key == "" {
		s.mu.Unlock()
		return "", false
	}
	s.state.LastUsed[provider] = s.now()
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return key, true
}

func (s *APIKeyService) ActiveProviders() []models.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

// SetKey validates and stores key. An empty key is ignored and reports false.
// A key with the wrong format for provider leaves the store untouched.
func (s *APIKeyService) SetKey(provider models.Provider, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	prefix, known := keyPrefixes[provider]
	if !known {
		return false, &ValidationError{Provider: provider, Reason: fmt.Sprintf("unsupported provider %q", provider)}
	}
	if !strings.HasPrefix(key, prefix) {
		return false, &ValidationError{Provider: provider}
	}

	s.mu.Lock()
	s.state.Keys[provider] = key
	s.state.LastUsed[provider] = s.now()
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return true, nil
}

// RemoveKey clears the key for provider and reports whether one was set.
func (s *APIKeyService) RemoveKey(provider models.Provider) bool {
	s.mu.Lock()
	if s.state.Keys[provider] == "" {
		s.mu.Unlock()
		return false
	}
	s.state.Keys[provider] = ""
	delete(s.state.LastUsed, provider)
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return true
}

func (s *APIKeyService) ClearAllKeys() {
	s.mu.Lock()
	for p := range s.state.Keys {
		s.state.Keys[p] = ""
	}
	s.state.LastUsed = map[models.Provider]time.Time{}
	s.persistLocked()
	s.mu.Unlock()

	s.notify()
}

// Summary is the redacted view handed to observers and the UI.
func (s *APIKeyService) Summary() models.APIKeysSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summaryLocked()
}

func (s *APIKeyService) Subscribe(fn func(models.APIKeysSummary)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

func (s *APIKeyService) activeLocked() []models.Provider {
	out := []models.Provider{}
	for _, p := range models.Providers {
		if s.state.Keys[p] != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *APIKeyService) summaryLocked() models.APIKeysSummary {
	lastUsed := make(map[models.Provider]time.Time, len(s.state.LastUsed))
	for p, t := range s.state.LastUsed {
		lastUsed[p] = t
	}
	return models.APIKeysSummary{ActiveProviders: s.activeLocked(), LastUsed: lastUsed}
}

// persistLocked writes the whole key store. A failed write is logged; the
// in-memory state stays authoritative for this process.
func (s *APIKeyService) persistLocked() {
	if err := saveState(s.ctx, s.repo, apiKeysNamespace, s.state); err != nil {
		s.log.Error("failed to persist api keys", zap.Error(err))
	}
}

func (s *APIKeyService) notify() {
	s.listeners.Notify(s.Summary())
}
