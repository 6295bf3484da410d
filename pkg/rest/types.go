// Package rest holds the JSON shapes of the public HTTP API.
package rest

import "time"

// PriceSample is one point of a brand's price series.
type PriceSample struct {
	Name  string    `json:"name"`
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// SimulatorStatus reports the lifecycle of the background price simulator.
type SimulatorStatus struct {
	State   string `json:"state"`
	Running bool   `json:"running"`
	Ticks   uint64 `json:"ticks"`
}

// Error Error model
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	SupportID string    `json:"supportId"`
}

// ErrorCode Error code
type ErrorCode string
