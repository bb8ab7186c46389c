// Copyright (c) ItsLJcool
// SPDX-License-Identifier: Apache-2.0

// Package cneonline carries the environment-driven configuration shared by
// the server binaries.
package cneonline

import (
	"crypto/tls"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is parsed from the environment with a per-listener prefix, so
// one process can host several differently-configured listeners.
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:""`
	Path string `env:"PATH" envDefault:"/"`

	// CertFile and KeyFile enable TLS when both are set.
	CertFile string `env:"CERT_FILE" envDefault:""`
	KeyFile  string `env:"KEY_FILE" envDefault:""`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// RateCapacity is the per-session frame budget; RateRefill is frames
	// regained per second. Zero capacity disables limiting.
	RateCapacity int64 `env:"RATE_CAPACITY" envDefault:"0"`
	RateRefill   int64 `env:"RATE_REFILL" envDefault:"0"`

	TLSConfig *tls.Config `env:"-"`
}

// NewConfig parses a Config from the environment using the given options
// (typically just the prefix) and loads the TLS key pair when configured.
func NewConfig(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, err
	}

	if c.CertFile != "" && c.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to load TLS key pair: %w", err)
		}
		c.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
	}

	return c, nil
}

// Address is the host:port listen address.
func (c Config) Address() string {
	return c.Host + ":" + c.Port
}
