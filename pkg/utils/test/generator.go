package testutils

import (
	"context"
	"fmt"

	"github.com/docentlabs/docent/pkg/llm"
)

// MockGenerator is a test generator that records prompts and returns a
// canned response.
type MockGenerator struct {
	// Response is the completion text to return.
	Response string

	// FailuresLeft, when positive, fails every call with
	// llm.ErrGenerationFailed while counting down.
	FailuresLeft int

	// Prompts records every prompt received.
	Prompts []*llm.Prompt
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(_ context.Context, prompt *llm.Prompt) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.FailuresLeft > 0 {
		m.FailuresLeft--
		return "", fmt.Errorf("%w: mock outage", llm.ErrGenerationFailed)
	}
	return m.Response, nil
}

func (m *MockGenerator) Close() error {
	return nil
}

// CallCount returns how many times Generate was invoked.
func (m *MockGenerator) CallCount() int { return len(m.Prompts) }

var _ llm.Generator = (*MockGenerator)(nil)
