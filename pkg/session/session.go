// Package session implements the conversational state machine that enforces
// "answer only from retrieved context, else decline."
//
// A turn moves through Idle → Retrieving → Answerable | Declining → Idle.
// Retrieval with at least one fragment at or above the floor reaches
// Answerable and consults the generator with an assembled grounding context;
// zero qualifying fragments reaches Declining, which synthesizes the fixed
// decline message locally; the generator is never called on the declining
// path. A retrieval or generation failure rolls the session back to Idle
// with the user's question kept in history and no assistant reply, so the
// turn can be retried.
package session

import "errors"

// State identifies the engine's position in the turn state machine.
type State int32

const (
	StateIdle State = iota
	StateRetrieving
	StateAnswerable
	StateDeclining
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRetrieving:
		return "retrieving"
	case StateAnswerable:
		return "answerable"
	case StateDeclining:
		return "declining"
	default:
		return "unknown"
	}
}

// SystemInstruction pins the generator to the retrieved context.
const SystemInstruction = "Answer only from the provided context. " +
	"If the context does not address the question, politely decline. " +
	"If you do not know the answer, say you do not know."

// DeclineMessage is the fixed response when no qualifying evidence exists.
const DeclineMessage = "I do not have an answer for your query from the " +
	"indexed documents. Please try other resources."

var (
	// ErrBusy is returned when a turn arrives while another is in flight
	// for the same session. It guards history ordering, not data.
	ErrBusy = errors.New("session busy")

	// ErrRetrievalFailed wraps embedder or index failures raised during a
	// turn. The session state rolls back to idle; history keeps the user
	// message and gains no assistant reply.
	ErrRetrievalFailed = errors.New("retrieval failed")
)
