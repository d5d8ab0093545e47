package mocks

import (
	"context"
	"sync"
)

// LocalStateRepositoryMock keeps blobs in memory unless a Func field overrides
// the call.
type LocalStateRepositoryMock struct {
	GetFunc    func(ctx context.Context, namespace string) ([]byte, error)
	PutFunc    func(ctx context.Context, namespace string, value []byte) error
	DeleteFunc func(ctx context.Context, namespace string) error

	mu    sync.Mutex
	blobs map[string][]byte
	puts  int
}

func (m *LocalStateRepositoryMock) Get(ctx context.Context, namespace string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, namespace)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.blobs[namespace]; ok {
		return append([]byte{}, v...), nil
	}
	return nil, nil
}

func (m *LocalStateRepositoryMock) Put(ctx context.Context, namespace string, value []byte) error {
	m.mu.Lock()
	m.puts++
	m.mu.Unlock()
	if m.PutFunc != nil {
		return m.PutFunc(ctx, namespace, value)
	}
	m.Seed(namespace, string(value))
	return nil
}

func (m *LocalStateRepositoryMock) Delete(ctx context.Context, namespace string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, namespace)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, namespace)
	return nil
}

// Seed stores a raw blob without counting it as a write.
func (m *LocalStateRepositoryMock) Seed(namespace, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[namespace] = []byte(value)
}

// Blob returns the stored value for namespace, or "" when absent.
func (m *LocalStateRepositoryMock) Blob(namespace string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.blobs[namespace])
}

// Puts counts Put calls, including ones handled by PutFunc.
func (m *LocalStateRepositoryMock) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
