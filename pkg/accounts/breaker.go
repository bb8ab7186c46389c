// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package accounts

import (
	"context"
	stderrors "errors"

	"github.com/ItsLJcool/cne-online/pkg/breaker"
	"github.com/ItsLJcool/cne-online/pkg/errors"
)

// BreakerStore wraps a Store with a circuit breaker. A not-found result
// proves the store is reachable and does not count as a failure; an open
// circuit surfaces as ErrStoreUnavailable so handlers can answer with a
// server error instead of stalling on a dead collaborator.
type BreakerStore struct {
	store Store
	cb    *breaker.CircuitBreaker
}

var _ Store = (*BreakerStore)(nil)

// NewBreakerStore wraps the store with the circuit breaker.
func NewBreakerStore(store Store, cb *breaker.CircuitBreaker) *BreakerStore {
	return &BreakerStore{
		store: store,
		cb:    cb,
	}
}

// FindByEmail implements Store.
func (b *BreakerStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	var (
		u    *User
		ferr error
	)
	err := b.cb.Call(func() error {
		u, ferr = b.store.FindByEmail(ctx, email)
		if stderrors.Is(ferr, errors.ErrUserNotFound) {
			return nil
		}
		return ferr
	})
	if stderrors.Is(err, breaker.ErrCircuitOpen) {
		return nil, errors.ErrStoreUnavailable
	}
	if err != nil {
		return nil, err
	}
	return u, ferr
}

// Exists implements Store.
func (b *BreakerStore) Exists(ctx context.Context, email string) (bool, error) {
	var (
		ok   bool
		ferr error
	)
	err := b.cb.Call(func() error {
		ok, ferr = b.store.Exists(ctx, email)
		return ferr
	})
	if stderrors.Is(err, breaker.ErrCircuitOpen) {
		return false, errors.ErrStoreUnavailable
	}
	return ok, err
}

// VerifyPassword implements Store. Local computation, never breaks.
func (b *BreakerStore) VerifyPassword(plain, hash string) bool {
	return b.store.VerifyPassword(plain, hash)
}

// CreateOrUpdate implements Store.
func (b *BreakerStore) CreateOrUpdate(ctx context.Context, u *User) error {
	err := b.cb.Call(func() error {
		return b.store.CreateOrUpdate(ctx, u)
	})
	if stderrors.Is(err, breaker.ErrCircuitOpen) {
		return errors.ErrStoreUnavailable
	}
	return err
}
