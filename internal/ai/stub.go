// internal/ai/stub.go
package ai

import (
	"fmt"
	"math/rand"

	appErrors "github.com/postpilot/postpilot-backend/internal/errors"
)

// StubGenerator fakes the oracle with a 90% success rate, for local runs
// without an API key.
type StubGenerator struct{}

func (s *StubGenerator) GenerateContent(prompt string, maxTokens int) (string, error) {
	if rand.Float64() >= 0.9 {
		return "", appErrors.NewGenerationError("stub generation failed")
	}
	return fmt.Sprintf("Generated post (%d chars of prompt)", len(prompt)), nil
}

var _ Generator = (*StubGenerator)(nil)
