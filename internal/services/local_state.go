package services

import (
	"context"
	"encoding/json"
	"fmt"

	"eventdesk/internal/repositories"
)

const (
	apiKeysNamespace     = "apiKeys"
	preferencesNamespace = "uiPreferences"
)

// loadState decodes the blob stored under namespace into dst. It reports
// false when nothing is stored.
func loadState(ctx context.Context, repo repositories.LocalStateRepository, namespace string, dst any) (bool, error) {
	raw, err := repo.Get(ctx, namespace)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", namespace, err)
	}
	if len(raw) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", namespace, err)
	}
	return true, nil
}

// saveState rewrites the whole namespace blob.
func saveState(ctx context.Context, repo repositories.LocalStateRepository, namespace string, src any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode %s: %w", namespace, err)
	}
	if err := repo.Put(ctx, namespace, raw); err != nil {
		return fmt.Errorf("save %s: %w", namespace, err)
	}
	return nil
}
