//go:build tools
// +build tools

// Package tools pins the code generators used by go:generate (mockgen).
package swarm_relay

import (
	_ "go.uber.org/mock/mockgen"
)
