package authn_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/taintedport/taintedport/pkg/authn"
)

// memoryStorage is an in-memory authn.Storage used across the service
// tests. It mirrors the repository's not-found and duplicate-email
// semantics.
type memoryStorage struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*authn.User
	hashes  map[uuid.UUID][]byte
	secrets map[uuid.UUID]string
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		users:   make(map[uuid.UUID]*authn.User),
		hashes:  make(map[uuid.UUID][]byte),
		secrets: make(map[uuid.UUID]string),
	}
}

func (m *memoryStorage) CreateUser(_ context.Context, user *authn.User, passwordHash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return authn.ErrEmailAlreadyExists
		}
	}
	cp := *user
	m.users[user.ID] = &cp
	m.hashes[user.ID] = passwordHash
	return nil
}

func (m *memoryStorage) GetUserByID(_ context.Context, id uuid.UUID) (*authn.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, authn.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memoryStorage) GetUserByEmail(_ context.Context, email string) (*authn.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, authn.ErrUserNotFound
}

func (m *memoryStorage) GetPasswordHash(_ context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[id]
	if !ok {
		return nil, authn.ErrUserNotFound
	}
	return h, nil
}

func (m *memoryStorage) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return authn.ErrUserNotFound
	}
	m.hashes[id] = hash
	return nil
}

func (m *memoryStorage) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return authn.ErrUserNotFound
	}
	for otherID, other := range m.users {
		if otherID != id && other.Email == email {
			return authn.ErrEmailAlreadyExists
		}
	}
	u.Email = email
	return nil
}

func (m *memoryStorage) UpdateName(_ context.Context, id uuid.UUID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return authn.ErrUserNotFound
	}
	u.Name = name
	return nil
}

func (m *memoryStorage) GetTOTPSecret(_ context.Context, id uuid.UUID) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return "", authn.ErrUserNotFound
	}
	return m.secrets[id], nil
}

func (m *memoryStorage) EnableTOTP(_ context.Context, id uuid.UUID, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return authn.ErrUserNotFound
	}
	u.TOTPEnabled = true
	m.secrets[id] = secret
	return nil
}

func (m *memoryStorage) DisableTOTP(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return authn.ErrUserNotFound
	}
	u.TOTPEnabled = false
	delete(m.secrets, id)
	return nil
}
