// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package accounts

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/ItsLJcool/cne-online/pkg/errors"
)

// Store is the persistence capability the account endpoint depends on.
// Implementations must return errors.ErrUserNotFound for unknown emails;
// any other error is treated as a collaborator failure.
type Store interface {
	// FindByEmail returns the user registered under the email.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Exists reports whether an account is registered under the email.
	Exists(ctx context.Context, email string) (bool, error)

	// VerifyPassword checks a plain-text password against a stored hash.
	VerifyPassword(plain, hash string) bool

	// CreateOrUpdate inserts the user, replacing any record under the
	// same email.
	CreateOrUpdate(ctx context.Context, u *User) error
}

// HashPassword hashes a plain-text password for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// MemoryStore is an in-memory Store for tests and standalone runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]User
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]User),
	}
}

// FindByEmail implements Store.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return &u, nil
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[email]
	return ok, nil
}

// VerifyPassword implements Store.
func (s *MemoryStore) VerifyPassword(plain, hash string) bool {
	return verifyPassword(plain, hash)
}

// CreateOrUpdate implements Store.
func (s *MemoryStore) CreateOrUpdate(ctx context.Context, u *User) error {
	s.mu.Lock()
	s.users[u.Email] = *u
	s.mu.Unlock()
	return nil
}
