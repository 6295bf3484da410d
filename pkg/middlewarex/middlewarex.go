// Package middlewarex holds the HTTP middleware chain shared by the API
// server: trace id, context logger, request/response dumps and panic recovery.
package middlewarex

import "price_simulator/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
