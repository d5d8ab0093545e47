package services

import (
	"context"
	"fmt"

	"github.com/99designs/keyring"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"eventdesk/internal/apiclient"
	"eventdesk/internal/config"
	"eventdesk/internal/logging"
	"eventdesk/internal/repositories"
)

// Stores aggregates the client-side stores. Preferences and search share the
// local table; API keys go to the keyring when configured.
type Stores struct {
	APIKeys     *APIKeyService
	Preferences *PreferencesService
	Search      *SearchService
	Appearance  *SystemAppearance
}

// StoresOptions carries what NewStores cannot build from the config itself.
type StoresOptions struct {
	DB      *gorm.DB
	Backend apiclient.Backend
	// Providers defaults to a resty provider client.
	Providers apiclient.ProviderCaller
	Theme     ThemeApplier
	// Keyring overrides the ring opened for storage.api_keys_backend=keyring.
	Keyring keyring.Keyring
	Logger  *zap.Logger
}

// NewStores wires the stores from cfg.
func NewStores(cfg *config.Config, opts StoresOptions) (*Stores, error) {
	logger := logging.OrNop(opts.Logger)
	localRepo := repositories.NewLocalStateRepository(opts.DB)

	keyRepo := localRepo
	if cfg.Storage.APIKeysBackend == config.APIKeysBackendKeyring {
		ring := opts.Keyring
		if ring == nil {
			var err error
			ring, err = repositories.OpenKeyring(repositories.KeyringConfig{Dir: cfg.Storage.KeyringDir})
			if err != nil {
				return nil, fmt.Errorf("api key storage: %w", err)
			}
		}
		keyRepo = repositories.NewKeyringStateRepository(ring)
	}

	providers := opts.Providers
	if providers == nil {
		providers = apiclient.NewProviderClient(cfg.API.Timeout)
	}

	appearance := &SystemAppearance{}
	keys := NewAPIKeyService(keyRepo, logger)
	prefs := NewPreferencesService(PreferencesDeps{
		Repo:        localRepo,
		Backend:     opts.Backend,
		Keys:        keys,
		Providers:   providers,
		Theme:       opts.Theme,
		PrefersDark: appearance.PrefersDark,
		Logger:      logger,
	})
	search := NewSearchService(opts.Backend, SearchOptions{
		Origin:       cfg.App.Origin,
		Delay:        cfg.Search.Debounce,
		DiscardStale: cfg.Search.DiscardStale,
		Logger:       logger,
	})

	return &Stores{
		APIKeys:     keys,
		Preferences: prefs,
		Search:      search,
		Appearance:  appearance,
	}, nil
}

func (s *Stores) Startup(ctx context.Context) {
	s.APIKeys.Startup(ctx)
	s.Preferences.Startup(ctx)
}

// Shutdown stops pending searches and waits for background saves.
func (s *Stores) Shutdown() {
	s.Search.Close()
	s.Preferences.Wait()
}
