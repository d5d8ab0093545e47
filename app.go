package main

import (
	"context"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/events"
	"eventdesk/internal/models"
	"eventdesk/internal/services"
)

// App is the facade bound to the frontend. Bound methods cannot take a
// context, so the one Wails hands to startup is used for every call.
type App struct {
	ctx     context.Context
	ctxMu   sync.RWMutex
	log     *zap.Logger
	stores  *services.Stores
	dbClose func() error
	unsubs  []func()
}

func NewApp(log *zap.Logger) *App {
	return &App{log: log}
}

func (a *App) callCtx() context.Context {
	a.ctxMu.RLock()
	defer a.ctxMu.RUnlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()

	events.EnableRuntimeEmitter(a.log)
	a.stores.Startup(ctx)

	a.unsubs = append(a.unsubs,
		a.stores.Preferences.Subscribe(func(s models.PreferencesState) {
			events.Emit(ctx, events.NewStoreEvent(events.PreferencesChanged, s))
		}),
		a.stores.APIKeys.Subscribe(func(s models.APIKeysSummary) {
			events.Emit(ctx, events.NewStoreEvent(events.APIKeysChanged, s))
		}),
		a.stores.Search.Subscribe(func(s models.SearchState) {
			events.Emit(ctx, events.NewStoreEvent(events.SearchChanged, s))
		}),
	)

	go a.stores.Preferences.InitializeSettings(ctx)
}

// shutdown is called when the app is closing. Clean up resources here.
func (a *App) shutdown(ctx context.Context) {
	for _, stop := range a.unsubs {
		stop()
	}
	a.unsubs = nil
	a.stores.Shutdown()
	events.SetCustomEmitter(nil)

	if a.dbClose != nil {
		if err := a.dbClose(); err != nil {
			a.log.Error("failed to close database", zap.Error(err))
		} else {
			a.log.Info("database closed")
		}
		a.dbClose = nil
	}
}

// applyTheme is the presentation side effect of the preferences store.
func (a *App) applyTheme(resolved models.Theme) {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	if ctx == nil {
		return
	}

	switch resolved {
	case models.ThemeDark:
		runtime.WindowSetDarkTheme(ctx)
	case models.ThemeLight:
		runtime.WindowSetLightTheme(ctx)
	default:
		runtime.WindowSetSystemDefaultTheme(ctx)
	}
	events.Emit(ctx, events.NewStoreEvent(events.ThemeApplied, resolved))
}

// ---------- preferences ----------

func (a *App) GetPreferences() models.PreferencesState {
	return a.stores.Preferences.Snapshot()
}

func (a *App) CurrentTheme() models.Theme {
	return a.stores.Preferences.CurrentTheme()
}

func (a *App) SetTheme(theme models.Theme) {
	a.stores.Preferences.SetTheme(theme)
}

// ReportSystemDarkMode is called by the frontend when prefers-color-scheme changes.
func (a *App) ReportSystemDarkMode(dark bool) {
	a.stores.Appearance.SetPrefersDark(dark)
	a.stores.Preferences.ApplyTheme()
}

func (a *App) SetLanguage(lang string) {
	a.stores.Preferences.SetLanguage(lang)
}

func (a *App) SetModelSettings(patch models.ModelSettingsPatch) {
	a.stores.Preferences.SetModelSettings(patch)
}

func (a *App) SetSelectedModel(model string) {
	a.stores.Preferences.SetSelectedModel(model)
}

func (a *App) SetOllamaSettings(patch models.OllamaSettingsPatch) {
	a.stores.Preferences.SetOllamaSettings(patch)
}

func (a *App) SavePreferences() (bool, error) {
	return a.stores.Preferences.SaveSettings(a.callCtx())
}

func (a *App) FetchPreferences() bool {
	return a.stores.Preferences.FetchPreferences(a.callCtx())
}

func (a *App) CheckOllamaConnection() bool {
	return a.stores.Preferences.CheckOllamaConnection(a.callCtx())
}

func (a *App) RefreshOllamaModels() []string {
	names, _ := a.stores.Preferences.RefreshOllamaModels(a.callCtx())
	return names
}

// ---------- api keys ----------

func (a *App) GetApiKeys() models.APIKeysSummary {
	return a.stores.APIKeys.Summary()
}

func (a *App) SetApiKey(provider models.Provider, key string) (bool, error) {
	return a.stores.Preferences.SetAPIKey(provider, key)
}

func (a *App) RemoveApiKey(provider models.Provider) bool {
	return a.stores.APIKeys.RemoveKey(provider)
}

func (a *App) ClearApiKeys() {
	a.stores.APIKeys.ClearAllKeys()
}

func (a *App) IsApiKeySet(provider models.Provider) bool {
	return a.stores.Preferences.IsAPIKeySet(provider)
}

// MakeApiCall posts payload to a provider endpoint using the stored key.
func (a *App) MakeApiCall(provider models.Provider, endpoint string, payload map[string]any) (*apiclient.ProviderResponse, error) {
	return a.stores.Preferences.MakeAPICall(a.callCtx(), provider, endpoint, payload)
}

// ---------- search ----------

func (a *App) Search(query string) {
	a.stores.Search.Search(query)
}

func (a *App) ClearSearch() {
	a.stores.Search.ClearSearch()
}

func (a *App) GetSearchState() models.SearchState {
	return a.stores.Search.State()
}
