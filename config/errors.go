// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")

	// ErrInvalidConfigValue indicates a value that does not parse for its key.
	ErrInvalidConfigValue = errors.New("config: invalid configuration value")

	// ErrInvalidTokenID indicates a contract or token id not in "block:tx" form.
	ErrInvalidTokenID = errors.New("config: invalid token id (must be \"block:tx\")")

	// ErrInvalidEngine indicates engine parameters the forge rejects.
	ErrInvalidEngine = errors.New("config: invalid engine parameters")

	// ErrZeroFuel indicates a zero fuel budget.
	ErrZeroFuel = errors.New("config: fuel must be positive")

	// ErrInvalidEnv indicates an environment variable that does not parse.
	ErrInvalidEnv = errors.New("config: invalid environment")
)
