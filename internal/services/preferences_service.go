package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/events"
	"eventdesk/internal/logging"
	"eventdesk/internal/models"
	"eventdesk/internal/repositories"
)

const defaultSaveMessage = "Failed to save preferences"

// PreferencesDeps wires a PreferencesService. Theme and PrefersDark may be nil.
type PreferencesDeps struct {
	Repo        repositories.LocalStateRepository
	Backend     apiclient.Backend
	Keys        *APIKeyService
	Providers   apiclient.ProviderCaller
	Theme       ThemeApplier
	PrefersDark DarkModeSignal
	Logger      *zap.Logger
}

// PreferencesService owns the UI preferences. The local tier is always
// written first; the backend is synced on a best-effort basis.
type PreferencesService struct {
	ctx         context.Context
	repo        repositories.LocalStateRepository
	backend     apiclient.Backend
	keys        *APIKeyService
	providers   apiclient.ProviderCaller
	theme       ThemeApplier
	prefersDark DarkModeSignal
	log         *zap.Logger
	now         func() time.Time

	mu       sync.Mutex
	prefs    models.Preferences
	isSaving bool
	syncing  int

	listeners  events.Listeners[models.PreferencesState]
	background sync.WaitGroup
}

func NewPreferencesService(deps PreferencesDeps) *PreferencesService {
	s := &PreferencesService{
		ctx:         context.Background(),
		repo:        deps.Repo,
		backend:     deps.Backend,
		keys:        deps.Keys,
		providers:   deps.Providers,
		theme:       deps.Theme,
		prefersDark: deps.PrefersDark,
		log:         logging.OrNop(deps.Logger).Named("preferences"),
		now:         time.Now,
		prefs:       models.DefaultPreferences(),
	}
	s.hydrate()
	return s
}

// Startup sets the context used by background saves.
func (s *PreferencesService) Startup(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

func (s *PreferencesService) hydrate() {
	stored := models.DefaultPreferences()
	found, err := loadState(s.ctx, s.repo, preferencesNamespace, &stored)
	if err != nil {
		s.log.Warn("falling back to default preferences", zap.Error(err))
		return
	}
	if !found {
		return
	}
	if stored.ModelSettings.APIKeys == nil {
		stored.ModelSettings.APIKeys = map[string]string{}
	}
	if stored.OllamaSettings.AvailableModels == nil {
		stored.OllamaSettings.AvailableModels = []string{}
	}
	s.prefs = stored
}

// ---------- getters ----------

func (s *PreferencesService) Snapshot() models.PreferencesState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CurrentTheme resolves "system" through the dark mode signal.
func (s *PreferencesService) CurrentTheme() models.Theme {
	s.mu.Lock()
	theme := s.prefs.Theme
	s.mu.Unlock()
	return ResolveTheme(theme, s.prefersDark)
}

func (s *PreferencesService) IsAPIKeySet(provider models.Provider) bool {
	return s.keys != nil && s.keys.HasKey(provider)
}

func (s *PreferencesService) IsOllamaConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.OllamaSettings.IsConnected
}

func (s *PreferencesService) ActiveModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.ModelSettings.SelectedModel
}

func (s *PreferencesService) ActiveLanguage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Language
}

func (s *PreferencesService) Subscribe(fn func(models.PreferencesState)) (unsubscribe func()) {
	return s.listeners.Add(fn)
}

// ---------- mutations ----------

// SetTheme accepts any value; unknown themes are stored and applied as given.
func (s *PreferencesService) SetTheme(theme models.Theme) {
	s.mutate(func(p *models.Preferences) { p.Theme = theme })
	s.ApplyTheme()
	s.saveInBackground()
}

func (s *PreferencesService) SetLanguage(lang string) {
	s.mutate(func(p *models.Preferences) { p.Language = lang })
	s.saveInBackground()
}

func (s *PreferencesService) SetModelSettings(patch models.ModelSettingsPatch) {
	s.mutate(func(p *models.Preferences) {
		if patch.SelectedModel != nil {
			p.ModelSettings.SelectedModel = *patch.SelectedModel
		}
		if patch.BaseURL != nil {
			p.ModelSettings.BaseURL = *patch.BaseURL
		}
		if patch.APIKeys != nil {
			keys := make(map[string]string, len(patch.APIKeys))
			for k, v := range patch.APIKeys {
				keys[k] = v
			}
			p.ModelSettings.APIKeys = keys
		}
	})
	s.saveInBackground()
}

func (s *PreferencesService) SetSelectedModel(model string) {
	s.mutate(func(p *models.Preferences) { p.ModelSettings.SelectedModel = model })
	s.saveInBackground()
}

func (s *PreferencesService) SetOllamaSettings(patch models.OllamaSettingsPatch) {
	s.mutate(func(p *models.Preferences) {
		if patch.BaseURL != nil {
			p.OllamaSettings.BaseURL = *patch.BaseURL
		}
		if patch.SelectedModel != nil {
			p.OllamaSettings.SelectedModel = *patch.SelectedModel
		}
		if patch.IsConnected != nil {
			p.OllamaSettings.IsConnected = *patch.IsConnected
		}
		if patch.AvailableModels != nil {
			p.OllamaSettings.AvailableModels = append([]string{}, patch.AvailableModels...)
		}
	})
	s.saveInBackground()
}

func (s *PreferencesService) UpdateOllamaConnection(connected bool) {
	s.mutate(func(p *models.Preferences) { p.OllamaSettings.IsConnected = connected })
	s.saveInBackground()
}

// SetOllamaModels only touches the local tier.
func (s *PreferencesService) SetOllamaModels(names []string) {
	s.mutate(func(p *models.Preferences) {
		p.OllamaSettings.AvailableModels = append([]string{}, names...)
	})
}

// SetAPIKey delegates to the key store; it does not go through SaveSettings.
func (s *PreferencesService) SetAPIKey(provider models.Provider, key string) (bool, error) {
	if s.keys == nil {
		return false, errors.New("api key store not configured")
	}
	return s.keys.SetKey(provider, key)
}

// ApplyTheme pushes the resolved theme to the presentation layer.
func (s *PreferencesService) ApplyTheme() {
	if s.theme == nil {
		return
	}
	s.theme.ApplyTheme(s.CurrentTheme())
}

// ---------- backend sync ----------

// InitializeSettings applies the cached theme before anything touches the
// network, then syncs from the backend.
func (s *PreferencesService) InitializeSettings(ctx context.Context) {
	s.ApplyTheme()
	s.FetchPreferences(ctx)
}

// FetchPreferences overlays the remote preferences onto local state. Only
// non-empty remote fields win. Failures are logged and local values kept; the
// result reports whether a sync happened.
func (s *PreferencesService) FetchPreferences(ctx context.Context) bool {
	s.mu.Lock()
	s.syncing++
	s.mu.Unlock()
	s.notify()

	remote, err := s.backend.GetPreferences(ctx)

	s.mu.Lock()
	s.syncing--
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("failed to fetch preferences, keeping local values", zap.Error(err))
		s.notify()
		return false
	}
	mergeRemote(&s.prefs, remote)
	now := s.now()
	s.prefs.LastSyncedAt = &now
	s.persistLocked()
	s.mu.Unlock()

	s.ApplyTheme()
	s.notify()
	return true
}

// SaveSettings pushes the remote subset to the backend. A call made while
// another save is in flight returns (false, nil) without a request.
func (s *PreferencesService) SaveSettings(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.isSaving {
		s.mu.Unlock()
		return false, nil
	}
	s.isSaving = true
	payload := remotePayload(s.prefs)
	s.mu.Unlock()
	s.notify()

	err := s.backend.UpdatePreferences(ctx, payload)

	s.mu.Lock()
	s.isSaving = false
	if err == nil {
		now := s.now()
		s.prefs.LastSyncedAt = &now
		s.persistLocked()
	}
	s.mu.Unlock()
	s.notify()

	if err != nil {
		s.log.Error("failed to save settings", zap.Error(err))
		return false, newSaveError(err)
	}
	return true, nil
}

// Wait blocks until background saves started by the setters have finished.
func (s *PreferencesService) Wait() {
	s.background.Wait()
}

// MakeAPICall posts payload to a provider endpoint with the stored key. A 401
// invalidates the key.
func (s *PreferencesService) MakeAPICall(ctx context.Context, provider models.Provider, endpoint string, payload any) (*apiclient.ProviderResponse, error) {
	if s.keys == nil {
		return nil, errors.New("api key store not configured")
	}
	key, ok := s.keys.GetKey(provider)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoAPIKey, provider)
	}

	resp, err := s.providers.Post(ctx, endpoint, key, payload)
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusUnauthorized {
			s.keys.RemoveKey(provider)
			s.log.Warn("provider rejected api key, removed it", zap.String("provider", string(provider)))
			return nil, &AuthError{Provider: provider, Err: err}
		}
		return nil, err
	}
	return resp, nil
}

// CheckOllamaConnection asks the backend whether the configured Ollama server
// is reachable and records the answer. Errors count as disconnected.
func (s *PreferencesService) CheckOllamaConnection(ctx context.Context) bool {
	s.mu.Lock()
	baseURL := s.prefs.OllamaSettings.BaseURL
	s.mu.Unlock()

	connected, err := s.backend.OllamaStatus(ctx, baseURL)
	if err != nil {
		s.log.Warn("failed to check ollama status", zap.String("base_url", baseURL), zap.Error(err))
		connected = false
	}
	s.UpdateOllamaConnection(connected)
	return connected
}

// RefreshOllamaModels reloads the model list from the backend. On failure the
// current list is kept and returned with ok=false.
func (s *PreferencesService) RefreshOllamaModels(ctx context.Context) (names []string, ok bool) {
	s.mu.Lock()
	baseURL := s.prefs.OllamaSettings.BaseURL
	s.mu.Unlock()

	names, err := s.backend.OllamaModels(ctx, baseURL)
	if err != nil {
		s.log.Warn("failed to list ollama models", zap.String("base_url", baseURL), zap.Error(err))
		return s.Snapshot().OllamaSettings.AvailableModels, false
	}
	s.SetOllamaModels(names)
	return append([]string{}, names...), true
}

// ---------- internals ----------

func (s *PreferencesService) mutate(fn func(p *models.Preferences)) {
	s.mu.Lock()
	fn(&s.prefs)
	s.persistLocked()
	s.mu.Unlock()
	s.notify()
}

func (s *PreferencesService) saveInBackground() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.SaveSettings(ctx); err != nil {
			s.log.Warn("background save failed", zap.Error(err))
		}
	}()
}

func (s *PreferencesService) persistLocked() {
	if err := saveState(s.ctx, s.repo, preferencesNamespace, s.prefs); err != nil {
		s.log.Error("failed to persist preferences", zap.Error(err))
	}
}

func (s *PreferencesService) snapshotLocked() models.PreferencesState {
	return models.PreferencesState{
		Preferences: s.prefs.Clone(),
		IsSaving:    s.isSaving,
		IsSyncing:   s.syncing > 0,
	}
}

func (s *PreferencesService) notify() {
	s.listeners.Notify(s.Snapshot())
}

func mergeRemote(p *models.Preferences, remote *apiclient.PreferencesPayload) {
	if remote == nil {
		return
	}
	if remote.Theme != "" {
		p.Theme = models.Theme(remote.Theme)
	}
	if remote.Language != "" {
		p.Language = remote.Language
	}
	if ms := remote.ModelSettings; ms != nil {
		if ms.SelectedModel != "" {
			p.ModelSettings.SelectedModel = ms.SelectedModel
		}
		if ms.BaseURL != "" {
			p.ModelSettings.BaseURL = ms.BaseURL
		}
	}
	if ol := remote.OllamaSettings; ol != nil {
		if ol.BaseURL != "" {
			p.OllamaSettings.BaseURL = ol.BaseURL
		}
		if ol.SelectedModel != "" {
			p.OllamaSettings.SelectedModel = ol.SelectedModel
		}
	}
}

func remotePayload(p models.Preferences) apiclient.PreferencesPayload {
	return apiclient.PreferencesPayload{
		Theme:    string(p.Theme),
		Language: p.Language,
		ModelSettings: &apiclient.RemoteModelSettings{
			SelectedModel: p.ModelSettings.SelectedModel,
			BaseURL:       p.ModelSettings.BaseURL,
		},
		OllamaSettings: &apiclient.RemoteOllama{
			BaseURL:       p.OllamaSettings.BaseURL,
			SelectedModel: p.OllamaSettings.SelectedModel,
		},
	}
}

func newSaveError(err error) *SaveError {
	var be *apiclient.BackendError
	if errors.As(err, &be) && be.Message != "" {
		return &SaveError{Message: be.Message, Err: err}
	}
	return &SaveError{Message: defaultSaveMessage, Err: err}
}
