package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const keyringServiceName = "eventdesk"

// KeyringConfig selects where keyring-backed state lives. An empty Dir uses
// the user config directory; Password unlocks the encrypted file backend.
type KeyringConfig struct {
	Dir      string
	Password string
}

// OpenKeyring opens the OS keychain when available and falls back to an
// encrypted file under Dir.
func OpenKeyring(cfg KeyringConfig) (keyring.Keyring, error) {
	dir := cfg.Dir
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve keyring dir: %w", err)
		}
		dir = filepath.Join(configDir, "eventdesk", "keyring")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create keyring dir: %w", err)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.FileBackend,
		},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

type keyringStateRepository struct {
	ring keyring.Keyring
}

// NewKeyringStateRepository stores each namespace blob as one keyring item.
func NewKeyringStateRepository(ring keyring.Keyring) LocalStateRepository {
	return &keyringStateRepository{ring: ring}
}

func (r *keyringStateRepository) Get(_ context.Context, namespace string) ([]byte, error) {
	if err := validateNamespace(namespace); err != nil {
		return nil, err
	}
	item, err := r.ring.Get(namespace)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item.Data, nil
}

func (r *keyringStateRepository) Put(_ context.Context, namespace string, value []byte) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	return r.ring.Set(keyring.Item{
		Key:         namespace,
		Data:        value,
		Label:       namespace + " state",
		Description: "eventdesk " + namespace,
	})
}

func (r *keyringStateRepository) Delete(_ context.Context, namespace string) error {
	if err := validateNamespace(namespace); err != nil {
		return err
	}
	if err := r.ring.Remove(namespace); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
