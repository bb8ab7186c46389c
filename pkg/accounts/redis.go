// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

package accounts

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ItsLJcool/cne-online/pkg/errors"
)

const defaultQueryTimeout = 5 * time.Second

// RedisStore is a Store backed by Redis. User records are msgpack-encoded
// under "<prefix>:user:<email>". The caller owns the redis.Client
// lifecycle.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "cne"
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		timeout: defaultQueryTimeout,
	}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + ":user:" + email
}

func (s *RedisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

// FindByEmail implements Store.
func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	data, err := s.client.Get(qctx, s.key(email)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var u User
	if err := msgpack.Unmarshal(data, &u); err != nil {
		return nil, errors.Wrap(err, "decode user record")
	}
	return &u, nil
}

// Exists implements Store.
func (s *RedisStore) Exists(ctx context.Context, email string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	n, err := s.client.Exists(qctx, s.key(email)).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis exists")
	}
	return n > 0, nil
}

// VerifyPassword implements Store.
func (s *RedisStore) VerifyPassword(plain, hash string) bool {
	return verifyPassword(plain, hash)
}

// CreateOrUpdate implements Store.
func (s *RedisStore) CreateOrUpdate(ctx context.Context, u *User) error {
	data, err := msgpack.Marshal(u)
	if err != nil {
		return errors.Wrap(err, "encode user record")
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	if err := s.client.Set(qctx, s.key(u.Email), data, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}
