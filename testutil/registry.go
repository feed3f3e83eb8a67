package testutil

import (
	"time"

	"github.com/skosovsky/toolrun"
)

// NewTestRegistry returns a Registry with a long timeout and panic recovery
// enabled, suitable for tests.
func NewTestRegistry(tools ...*toolrun.Tool) *toolrun.Registry {
	reg := toolrun.NewRegistry(
		toolrun.WithDefaultTimeout(30*time.Second),
		toolrun.WithRecoverPanics(true),
	)
	for _, t := range tools {
		reg.Register(t)
	}
	return reg
}
