package api

import (
	"github.com/docentlabs/docent/pkg/assembler"
	"github.com/docentlabs/docent/pkg/llm"
	"github.com/docentlabs/docent/pkg/retriever"
	"github.com/docentlabs/docent/pkg/session"
	"github.com/docentlabs/docent/pkg/transcript"
)

// Config holds the API server's collaborators and settings.
type Config struct {
	// ListenAddr is the address to serve on (e.g., ":8377").
	ListenAddr string

	// Retriever serves query retrieval. Required.
	Retriever *retriever.Retriever

	// Assembler builds grounding contexts. Required for chat.
	Assembler *assembler.Assembler

	// Generator produces completions. Required for chat.
	Generator llm.Generator

	// HistoryWindow bounds per-session prompt history.
	HistoryWindow int

	// Retry configures session backoff for transient failures.
	Retry session.RetryConfig

	// Transcript, when non-nil, receives every finished turn.
	Transcript *transcript.Store
}
