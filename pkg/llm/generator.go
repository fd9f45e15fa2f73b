// Package llm defines the generator boundary: the structured prompt payload
// the session engine emits and the Generator interface completion backends
// implement. The engine never hands a generator loose strings; prompts carry
// the system instruction, grounding context, citations, history window, and
// question as distinct fields.
package llm

import (
	"context"
	"errors"

	"github.com/docentlabs/docent/pkg/corpus"
)

// ErrGenerationFailed covers auth, rate-limit, and network failures
// upstream. The engine treats them uniformly as transient: retried with
// bounded backoff, then surfaced.
var ErrGenerationFailed = errors.New("generation failed")

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation message.
type Message struct {
	Role      string            `json:"role"`
	Text      string            `json:"text"`
	Citations []corpus.Citation `json:"citations,omitempty"`
}

// Prompt is the structured payload handed to a generator.
type Prompt struct {
	// SystemInstruction pins the generator to the provided context.
	SystemInstruction string `json:"system_instruction"`

	// Context is the assembled grounding context.
	Context string `json:"context_text"`

	// Citations back the context, in context order.
	Citations []corpus.Citation `json:"citations"`

	// History is the bounded recent message window.
	History []Message `json:"history_window"`

	// Question is the current user question.
	Question string `json:"question"`
}

// Generator produces a completion for an assembled prompt.
type Generator interface {
	// Generate returns the completion text, or fails with an error
	// wrapping ErrGenerationFailed.
	Generate(ctx context.Context, prompt *Prompt) (string, error)

	// Close releases any resources held by the generator.
	Close() error
}

// Flatten renders the prompt as a provider-style message list: the system
// instruction and context as a system message, then the history window, then
// the question as the final user message.
func (p *Prompt) Flatten() []Message {
	msgs := make([]Message, 0, len(p.History)+2)
	system := p.SystemInstruction
	if p.Context != "" {
		system += "\n\nContext:\n" + p.Context
	}
	msgs = append(msgs, Message{Role: RoleSystem, Text: system})
	msgs = append(msgs, p.History...)
	msgs = append(msgs, Message{Role: RoleUser, Text: p.Question})
	return msgs
}
