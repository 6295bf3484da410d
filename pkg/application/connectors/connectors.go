// Package connectors opens lazily initialised clients for the storage
// backends. Connection failures during start-up are fatal.
package connectors

import "price_simulator/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
