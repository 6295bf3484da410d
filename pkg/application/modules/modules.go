// Package modules runs the long-lived servers of the application inside an
// errgroup so that the first failure cancels the others.
package modules

import "price_simulator/pkg/contextx"

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals
