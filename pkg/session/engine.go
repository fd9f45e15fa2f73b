package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/assembler"
	"github.com/docentlabs/docent/pkg/corpus"
	"github.com/docentlabs/docent/pkg/index"
	"github.com/docentlabs/docent/pkg/llm"
	"github.com/docentlabs/docent/pkg/retriever"
)

// DefaultHistoryWindow bounds the recent-history slice of the prompt.
const DefaultHistoryWindow = 8

// Reply is the outcome of a successful turn.
type Reply struct {
	// Text is the assistant's response.
	Text string `json:"text"`

	// Citations back the response; empty on a decline.
	Citations []corpus.Citation `json:"citations,omitempty"`

	// Declined marks the fixed no-evidence response.
	Declined bool `json:"declined"`
}

// Config holds engine construction parameters. The index handle and
// generator are explicit dependencies, never ambient globals, so many
// sessions can coexist against different corpora and credentials.
type Config struct {
	// Retriever performs query retrieval. Required.
	Retriever *retriever.Retriever

	// Assembler builds grounding contexts. Required.
	Assembler *assembler.Assembler

	// Generator produces completions on the answerable path. Required.
	Generator llm.Generator

	// HistoryWindow bounds the recent messages included in the prompt.
	// Defaults to DefaultHistoryWindow.
	HistoryWindow int

	// Retry configures backoff for transient embedder and generator
	// failures.
	Retry RetryConfig

	// Logger is the zap logger. Required.
	Logger *zap.Logger
}

// Engine owns one conversation's message history exclusively. Turns within
// one session are strictly sequential: a turn arriving while another is in
// flight is rejected with ErrBusy. Distinct engines never contend.
type Engine struct {
	id        string
	retriever *retriever.Retriever
	assembler *assembler.Assembler
	generator llm.Generator
	window    int
	retry     RetryConfig
	logger    *zap.Logger

	busy  atomic.Bool
	state atomic.Int32

	mu      sync.Mutex
	history []llm.Message
}

// NewEngine creates an engine with a fresh session ID.
func NewEngine(cfg Config) *Engine {
	window := cfg.HistoryWindow
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Engine{
		id:        uuid.NewString(),
		retriever: cfg.Retriever,
		assembler: cfg.Assembler,
		generator: cfg.Generator,
		window:    window,
		retry:     cfg.Retry.withDefaults(),
		logger:    cfg.Logger,
	}
}

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// State returns the engine's current state.
func (e *Engine) State() State { return State(e.state.Load()) }

// History returns a copy of the session's message history.
func (e *Engine) History() []llm.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]llm.Message, len(e.history))
	copy(out, e.history)
	return out
}

// HandleTurn processes one user message through the state machine and
// returns the assistant's reply. Transient embedder and generator failures
// are retried with bounded backoff before being surfaced; on failure the
// history keeps the user's question and no assistant reply is appended.
func (e *Engine) HandleTurn(ctx context.Context, text string) (*Reply, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer func() {
		e.state.Store(int32(StateIdle))
		e.busy.Store(false)
	}()

	window := e.historyWindow()
	e.appendMessage(llm.Message{Role: llm.RoleUser, Text: text})

	e.state.Store(int32(StateRetrieving))
	var results []index.Result
	err := withBackoff(ctx, e.retry, func(ctx context.Context) error {
		var rerr error
		results, rerr = e.retriever.Retrieve(ctx, text)
		return rerr
	})
	if err != nil {
		e.logger.Warn("retrieval failed",
			zap.String("session_id", e.id),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	if len(results) == 0 {
		return e.decline(), nil
	}

	e.state.Store(int32(StateAnswerable))
	grounding := e.assembler.Assemble(results)
	if grounding.Empty {
		// Evidence cleared the floor but none of it fit the context
		// budget whole. Structurally indistinguishable from no evidence.
		return e.decline(), nil
	}

	prompt := &llm.Prompt{
		SystemInstruction: SystemInstruction,
		Context:           grounding.Text,
		Citations:         grounding.Citations,
		History:           window,
		Question:          text,
	}

	var answer string
	err = withBackoff(ctx, e.retry, func(ctx context.Context) error {
		var gerr error
		answer, gerr = e.generator.Generate(ctx, prompt)
		return gerr
	})
	if err != nil {
		e.logger.Warn("generation failed",
			zap.String("session_id", e.id),
			zap.Error(err),
		)
		return nil, err
	}

	e.appendMessage(llm.Message{
		Role:      llm.RoleAssistant,
		Text:      answer,
		Citations: grounding.Citations,
	})

	e.logger.Debug("turn answered",
		zap.String("session_id", e.id),
		zap.Int("citations", len(grounding.Citations)),
		zap.Int("context_tokens", grounding.Tokens),
	)
	return &Reply{Text: answer, Citations: grounding.Citations}, nil
}

// Close is the session teardown hook. It drops the message history; shared
// collaborators (retriever, generator, index) outlive the session and are
// not closed here.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
	return nil
}

// decline appends and returns the fixed decline message. No generator call
// is made on this path.
func (e *Engine) decline() *Reply {
	e.state.Store(int32(StateDeclining))
	e.appendMessage(llm.Message{Role: llm.RoleAssistant, Text: DeclineMessage})
	e.logger.Debug("turn declined", zap.String("session_id", e.id))
	return &Reply{Text: DeclineMessage, Declined: true}
}

func (e *Engine) appendMessage(msg llm.Message) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, msg)
}

// historyWindow snapshots the last configured number of messages, taken
// before the current question is appended.
func (e *Engine) historyWindow() []llm.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	start := len(e.history) - e.window
	if start < 0 {
		start = 0
	}
	out := make([]llm.Message, len(e.history)-start)
	copy(out, e.history[start:])
	return out
}
