package ai

import (
	"context"

	"github.com/amishk599/jobrake/internal/model"
)

// NopGenerator is used when ai.enabled is false. Every call fails with
// model.ErrAIDisabled so callers can report the feature as unavailable.
type NopGenerator struct{}

// NewNopGenerator returns a NopGenerator.
func NewNopGenerator() *NopGenerator {
	return &NopGenerator{}
}

// Generate always returns model.ErrAIDisabled.
func (n *NopGenerator) Generate(_ context.Context, _ string) (string, error) {
	return "", model.ErrAIDisabled
}
