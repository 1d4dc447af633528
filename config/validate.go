// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/bitfsorg/libforge-go/host"
	"github.com/bitfsorg/libforge-go/token"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if cfg.Fuel == 0 {
		return ErrZeroFuel
	}

	if _, err := cfg.Params(); err != nil {
		return err
	}

	forgeID, templateID, _, err := cfg.IDs()
	if err != nil {
		return err
	}
	if forgeID == templateID {
		return fmt.Errorf("%w: forge and template share id %s", ErrInvalidTokenID, forgeID)
	}
	for _, id := range []token.ID{forgeID, templateID} {
		if host.IsAccount(id) {
			return fmt.Errorf("%w: %s is in the account block", ErrInvalidTokenID, id)
		}
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
