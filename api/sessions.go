package api

import (
	"sync"

	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/session"
)

// sessionRegistry tracks one engine per live conversation. Engines never
// share history; concurrent requests for different sessions proceed
// independently, while a second request for a busy session is rejected by
// the engine itself.
type sessionRegistry struct {
	config Config
	logger *zap.Logger

	mu      sync.Mutex
	engines map[string]*session.Engine
}

func newSessionRegistry(config Config, logger *zap.Logger) *sessionRegistry {
	return &sessionRegistry{
		config:  config,
		logger:  logger,
		engines: make(map[string]*session.Engine),
	}
}

// get returns the engine for id, creating a fresh session when id is empty
// or unknown.
func (r *sessionRegistry) get(id string) *session.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id != "" {
		if eng, ok := r.engines[id]; ok {
			return eng
		}
	}

	eng := session.NewEngine(session.Config{
		Retriever:     r.config.Retriever,
		Assembler:     r.config.Assembler,
		Generator:     r.config.Generator,
		HistoryWindow: r.config.HistoryWindow,
		Retry:         r.config.Retry,
		Logger:        r.logger,
	})
	r.engines[eng.ID()] = eng
	return eng
}

// drop tears down a session.
func (r *sessionRegistry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if eng, ok := r.engines[id]; ok {
		eng.Close()
		delete(r.engines, id)
	}
}
