package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/models"
	"eventdesk/internal/services"
	"eventdesk/internal/tests/mocks"
)

type prefsFixture struct {
	repo      *mocks.LocalStateRepositoryMock
	backend   *mocks.BackendMock
	providers *mocks.ProviderCallerMock
	keys      *services.APIKeyService
	applied   []models.Theme
	dark      bool
	svc       *services.PreferencesService
}

func newPrefsFixture(t *testing.T, setup func(f *prefsFixture)) *prefsFixture {
	t.Helper()
	f := &prefsFixture{
		repo:      &mocks.LocalStateRepositoryMock{},
		backend:   &mocks.BackendMock{},
		providers: &mocks.ProviderCallerMock{},
	}
	if setup != nil {
		setup(f)
	}
	f.keys = services.NewAPIKeyService(f.repo, nil)
	f.svc = services.NewPreferencesService(services.PreferencesDeps{
		Repo:      f.repo,
		Backend:   f.backend,
		Keys:      f.keys,
		Providers: f.providers,
		Theme: services.ThemeApplierFunc(func(resolved models.Theme) {
			f.applied = append(f.applied, resolved)
		}),
		PrefersDark: func() bool { return f.dark },
	})
	t.Cleanup(f.svc.Wait)
	return f
}

func strPtr(s string) *string { return &s }

func TestPreferencesService_DefaultsWhenNothingStored(t *testing.T) {
	f := newPrefsFixture(t, nil)

	snap := f.svc.Snapshot()
	if diff := cmp.Diff(models.DefaultPreferences(), snap.Preferences); diff != "" {
		t.Fatalf("unexpected defaults (-want +got):\n%s", diff)
	}
	assert.False(t, snap.IsSaving)
	assert.False(t, snap.IsSyncing)
}

func TestPreferencesService_HydratesFromLocalBlob(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.repo.Seed("uiPreferences", `{"theme":"dark","language":"fr","modelSettings":{"selectedModel":"deepseek-chat","baseUrl":"https://api.deepseek.com"},"ollamaSettings":{"baseUrl":"http://gpu:11434","selectedModel":"llama3"}}`)
	})

	snap := f.svc.Snapshot()
	assert.Equal(t, models.ThemeDark, snap.Theme)
	assert.Equal(t, "fr", snap.Language)
	assert.Equal(t, "deepseek-chat", f.svc.ActiveModel())
	assert.Equal(t, "http://gpu:11434", snap.OllamaSettings.BaseURL)
	assert.NotNil(t, snap.OllamaSettings.AvailableModels)
	assert.NotNil(t, snap.ModelSettings.APIKeys)
}

func TestPreferencesService_CorruptBlobFallsBackToDefaults(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.repo.Seed("uiPreferences", `{"theme":`)
	})
	assert.Equal(t, models.ThemeSystem, f.svc.Snapshot().Theme)
}

func TestPreferencesService_SetTheme_PersistsAppliesAndSaves(t *testing.T) {
	f := newPrefsFixture(t, nil)

	f.svc.SetTheme(models.ThemeDark)
	assert.Contains(t, f.repo.Blob("uiPreferences"), `"theme":"dark"`)
	assert.Equal(t, []models.Theme{models.ThemeDark}, f.applied)

	f.svc.Wait()
	updates := f.backend.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, "dark", updates[0].Theme)
}

func TestPreferencesService_SystemThemeFollowsSignal(t *testing.T) {
	f := newPrefsFixture(t, nil)

	f.dark = true
	assert.Equal(t, models.ThemeDark, f.svc.CurrentTheme())
	f.dark = false
	assert.Equal(t, models.ThemeLight, f.svc.CurrentTheme())

	f.svc.SetTheme(models.ThemeSystem)
	f.svc.Wait()
	assert.Contains(t, f.repo.Blob("uiPreferences"), `"theme":"system"`, "system is stored unresolved")
}

func TestPreferencesService_SaveFailureKeepsLocalChange(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.backend.UpdatePreferencesFunc = func(ctx context.Context, p apiclient.PreferencesPayload) error {
			return &apiclient.TransportError{Op: "update preferences", Err: errors.New("connection refused")}
		}
	})

	f.svc.SetLanguage("de")
	f.svc.Wait()

	snap := f.svc.Snapshot()
	assert.Equal(t, "de", snap.Language)
	assert.Nil(t, snap.LastSyncedAt)
	assert.False(t, snap.IsSaving)
	assert.Contains(t, f.repo.Blob("uiPreferences"), `"language":"de"`)
}

func TestPreferencesService_PatchMergesShallowly(t *testing.T) {
	f := newPrefsFixture(t, nil)

	f.svc.SetModelSettings(models.ModelSettingsPatch{SelectedModel: strPtr("claude-3")})
	f.svc.SetOllamaSettings(models.OllamaSettingsPatch{BaseURL: strPtr("http://box:11434")})
	f.svc.Wait()

	snap := f.svc.Snapshot()
	assert.Equal(t, "claude-3", snap.ModelSettings.SelectedModel)
	assert.Equal(t, "https://api.openai.com/v1", snap.ModelSettings.BaseURL)
	assert.Equal(t, "http://box:11434", snap.OllamaSettings.BaseURL)
	assert.Equal(t, "qwen2", snap.OllamaSettings.SelectedModel)
}

func TestPreferencesService_SaveSettings_PayloadAndSuccess(t *testing.T) {
	f := newPrefsFixture(t, nil)

	ok, err := f.svc.SaveSettings(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	updates := f.backend.Updates()
	require.Len(t, updates, 1)
	want := apiclient.PreferencesPayload{
		Theme:    "system",
		Language: "en",
		ModelSettings: &apiclient.RemoteModelSettings{
			SelectedModel: "gpt4o",
			BaseURL:       "https://api.openai.com/v1",
		},
		OllamaSettings: &apiclient.RemoteOllama{
			BaseURL:       "http://localhost:11434",
			SelectedModel: "qwen2",
		},
	}
	if diff := cmp.Diff(want, updates[0]); diff != "" {
		t.Fatalf("unexpected payload (-want +got):\n%s", diff)
	}
	assert.NotNil(t, f.svc.Snapshot().LastSyncedAt)
	assert.Contains(t, f.repo.Blob("uiPreferences"), `"lastSyncedAt":"`)
}

func TestPreferencesService_SaveSettings_ErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &apiclient.BackendError{Op: "update preferences", StatusCode: 422, Message: "language not supported"}, "language not supported"},
		{"no message", &apiclient.BackendError{Op: "update preferences", StatusCode: 500}, "Failed to save preferences"},
		{"transport", &apiclient.TransportError{Op: "update preferences", Err: errors.New("timeout")}, "Failed to save preferences"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPrefsFixture(t, func(f *prefsFixture) {
				f.backend.UpdatePreferencesFunc = func(ctx context.Context, p apiclient.PreferencesPayload) error {
					return tc.err
				}
			})

			ok, err := f.svc.SaveSettings(context.Background())
			assert.False(t, ok)
			var saveErr *services.SaveError
			require.ErrorAs(t, err, &saveErr)
			assert.Equal(t, tc.want, saveErr.Error())
			assert.ErrorIs(t, err, tc.err)

			snap := f.svc.Snapshot()
			assert.False(t, snap.IsSaving)
			assert.Nil(t, snap.LastSyncedAt)
		})
	}
}

func TestPreferencesService_SaveSettings_ReentrancyGuard(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.backend.UpdatePreferencesFunc = func(ctx context.Context, p apiclient.PreferencesPayload) error {
			close(entered)
			<-release
			return nil
		}
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstOK bool
	go func() {
		defer wg.Done()
		firstOK, _ = f.svc.SaveSettings(context.Background())
	}()

	<-entered
	assert.True(t, f.svc.Snapshot().IsSaving)

	ok, err := f.svc.SaveSettings(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)

	close(release)
	wg.Wait()
	assert.True(t, firstOK)
	assert.Equal(t, 1, f.backend.Calls("UpdatePreferences"))
	assert.False(t, f.svc.Snapshot().IsSaving)
}

func TestPreferencesService_FetchPreferences_MergesNonEmptyRemoteFields(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.repo.Seed("uiPreferences", `{"theme":"light","language":"fr","modelSettings":{"selectedModel":"local-model","baseUrl":"https://local"},"ollamaSettings":{"baseUrl":"http://local:11434","selectedModel":"mistral"}}`)
		f.backend.GetPreferencesFunc = func(ctx context.Context) (*apiclient.PreferencesPayload, error) {
			return &apiclient.PreferencesPayload{
				Theme:         "dark",
				Language:      "",
				ModelSettings: &apiclient.RemoteModelSettings{SelectedModel: "gpt4o"},
			}, nil
		}
	})

	assert.True(t, f.svc.FetchPreferences(context.Background()))

	snap := f.svc.Snapshot()
	assert.Equal(t, models.ThemeDark, snap.Theme)
	assert.Equal(t, "fr", snap.Language, "empty remote value keeps local")
	assert.Equal(t, "gpt4o", snap.ModelSettings.SelectedModel)
	assert.Equal(t, "https://local", snap.ModelSettings.BaseURL)
	assert.Equal(t, "mistral", snap.OllamaSettings.SelectedModel)
	assert.NotNil(t, snap.LastSyncedAt)
	assert.False(t, snap.IsSyncing)
	assert.Equal(t, []models.Theme{models.ThemeDark}, f.applied)
	assert.Contains(t, f.repo.Blob("uiPreferences"), `"theme":"dark"`)
}

func TestPreferencesService_FetchPreferences_FailureKeepsLocal(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.repo.Seed("uiPreferences", `{"theme":"light","language":"fr"}`)
		f.backend.GetPreferencesFunc = func(ctx context.Context) (*apiclient.PreferencesPayload, error) {
			return nil, &apiclient.BackendError{Op: "get preferences", StatusCode: 500}
		}
	})

	var states []models.PreferencesState
	f.svc.Subscribe(func(s models.PreferencesState) { states = append(states, s) })

	assert.False(t, f.svc.FetchPreferences(context.Background()))

	snap := f.svc.Snapshot()
	assert.Equal(t, models.ThemeLight, snap.Theme)
	assert.Equal(t, "fr", snap.Language)
	assert.Nil(t, snap.LastSyncedAt)

	require.Len(t, states, 2)
	assert.True(t, states[0].IsSyncing)
	assert.False(t, states[1].IsSyncing)
}

func TestPreferencesService_InitializeSettingsAppliesCachedThemeFirst(t *testing.T) {
	var appliedAtFetch []models.Theme
	var f *prefsFixture
	f = newPrefsFixture(t, func(fx *prefsFixture) {
		fx.repo.Seed("uiPreferences", `{"theme":"dark"}`)
		fx.backend.GetPreferencesFunc = func(ctx context.Context) (*apiclient.PreferencesPayload, error) {
			appliedAtFetch = append([]models.Theme{}, f.applied...)
			return &apiclient.PreferencesPayload{Theme: "light"}, nil
		}
	})

	f.svc.InitializeSettings(context.Background())

	assert.Equal(t, []models.Theme{models.ThemeDark}, appliedAtFetch)
	assert.Equal(t, []models.Theme{models.ThemeDark, models.ThemeLight}, f.applied)
}

func TestPreferencesService_MakeAPICall(t *testing.T) {
	t.Run("no key", func(t *testing.T) {
		f := newPrefsFixture(t, nil)

		_, err := f.svc.MakeAPICall(context.Background(), models.ProviderOpenAI, "https://api.openai.com/v1/chat", nil)
		assert.ErrorIs(t, err, services.ErrNoAPIKey)
		assert.Zero(t, f.providers.Calls())
	})

	t.Run("bearer header", func(t *testing.T) {
		var gotKey string
		f := newPrefsFixture(t, func(f *prefsFixture) {
			f.providers.PostFunc = func(ctx context.Context, endpoint, apiKey string, payload any) (*apiclient.ProviderResponse, error) {
				gotKey = apiKey
				return &apiclient.ProviderResponse{StatusCode: 200, Body: []byte(`{"ok":true}`)}, nil
			}
		})
		_, err := f.svc.SetAPIKey(models.ProviderOpenAI, "sk-live")
		require.NoError(t, err)

		resp, err := f.svc.MakeAPICall(context.Background(), models.ProviderOpenAI, "https://api.openai.com/v1/chat", map[string]string{"q": "hi"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, "sk-live", gotKey)
		assert.True(t, f.svc.IsAPIKeySet(models.ProviderOpenAI))
	})

	t.Run("unauthorized removes key", func(t *testing.T) {
		f := newPrefsFixture(t, func(f *prefsFixture) {
			f.providers.PostFunc = func(ctx context.Context, endpoint, apiKey string, payload any) (*apiclient.ProviderResponse, error) {
				return nil, &apiclient.BackendError{Op: "provider call", StatusCode: 401, Message: "unauthorized"}
			}
		})
		_, err := f.svc.SetAPIKey(models.ProviderOpenAI, "sk-revoked")
		require.NoError(t, err)

		_, err = f.svc.MakeAPICall(context.Background(), models.ProviderOpenAI, "https://api.openai.com/v1/chat", nil)
		var authErr *services.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "invalid openai API key", err.Error())
		assert.False(t, f.svc.IsAPIKeySet(models.ProviderOpenAI))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		backendErr := &apiclient.BackendError{Op: "provider call", StatusCode: 429, Message: "429 Too Many Requests"}
		f := newPrefsFixture(t, func(f *prefsFixture) {
			f.providers.PostFunc = func(ctx context.Context, endpoint, apiKey string, payload any) (*apiclient.ProviderResponse, error) {
				return nil, backendErr
			}
		})
		_, _ = f.svc.SetAPIKey(models.ProviderQwen, "qwk-1")

		_, err := f.svc.MakeAPICall(context.Background(), models.ProviderQwen, "https://dashscope/v1", nil)
		assert.Same(t, backendErr, err)
		assert.True(t, f.svc.IsAPIKeySet(models.ProviderQwen))
	})
}

func TestPreferencesService_SetAPIKeyDoesNotSaveRemotely(t *testing.T) {
	f := newPrefsFixture(t, nil)

	_, err := f.svc.SetAPIKey(models.ProviderClaude, "sk-ant")
	require.NoError(t, err)
	f.svc.Wait()

	assert.Zero(t, f.backend.Calls("UpdatePreferences"))
	assert.NotContains(t, f.repo.Blob("uiPreferences"), "sk-ant")
}

func TestPreferencesService_Ollama(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.backend.OllamaStatusFunc = func(ctx context.Context, baseURL string) (bool, error) {
			assert.Equal(t, "http://localhost:11434", baseURL)
			return true, nil
		}
		f.backend.OllamaModelsFunc = func(ctx context.Context, baseURL string) ([]string, error) {
			return []string{"qwen2", "llama3"}, nil
		}
	})

	assert.True(t, f.svc.CheckOllamaConnection(context.Background()))
	assert.True(t, f.svc.IsOllamaConnected())

	names, ok := f.svc.RefreshOllamaModels(context.Background())
	assert.True(t, ok)
	assert.Equal(t, []string{"qwen2", "llama3"}, names)
	assert.Equal(t, []string{"qwen2", "llama3"}, f.svc.Snapshot().OllamaSettings.AvailableModels)

	f.svc.Wait()
	assert.Equal(t, 1, f.backend.Calls("UpdatePreferences"), "only the connection change is saved remotely")
}

func TestPreferencesService_OllamaFailures(t *testing.T) {
	f := newPrefsFixture(t, func(f *prefsFixture) {
		f.backend.OllamaStatusFunc = func(ctx context.Context, baseURL string) (bool, error) {
			return false, &apiclient.TransportError{Op: "ollama status", Err: errors.New("refused")}
		}
		f.backend.OllamaModelsFunc = func(ctx context.Context, baseURL string) ([]string, error) {
			return nil, &apiclient.BackendError{Op: "ollama models", StatusCode: 502}
		}
	})
	f.svc.SetOllamaModels([]string{"cached"})

	assert.False(t, f.svc.CheckOllamaConnection(context.Background()))
	names, ok := f.svc.RefreshOllamaModels(context.Background())
	assert.False(t, ok)
	assert.Equal(t, []string{"cached"}, names)
}

func TestPreferencesService_ObserversSeeCommittedState(t *testing.T) {
	f := newPrefsFixture(t, nil)

	done := make(chan models.PreferencesState, 8)
	stop := f.svc.Subscribe(func(s models.PreferencesState) { done <- s })
	defer stop()

	f.svc.SetSelectedModel("qwen-max")
	select {
	case s := <-done:
		assert.Equal(t, "qwen-max", s.ModelSettings.SelectedModel)
	case <-time.After(time.Second):
		t.Fatal("observer was not notified")
	}
	f.svc.Wait()
}
