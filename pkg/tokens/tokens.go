// Package tokens provides token counting for chunking and context budgeting.
package tokens

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokenizer tokens in a piece of text.
type Counter interface {
	Count(text string) int
}

// DefaultEncoding is the BPE encoding used by the tiktoken counter.
const DefaultEncoding = "cl100k_base"

// TiktokenCounter counts tokens with a tiktoken BPE encoding.
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, falling back to
// DefaultEncoding when name is empty.
func NewTiktokenCounter(name string) (*TiktokenCounter, error) {
	if name == "" {
		name = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	return &TiktokenCounter{enc: enc}, nil
}

// Count returns the number of BPE tokens in text.
func (c *TiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// HeuristicCounter approximates token counts without an encoding file,
// using the common four-characters-per-token rule with a word floor.
// It is deterministic and has no external dependencies, which makes it the
// counter of choice in tests and offline environments.
type HeuristicCounter struct{}

// Count returns the approximate token count for text.
func (HeuristicCounter) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	byChars := utf8.RuneCountInString(text) / 4
	byWords := len(strings.Fields(text))
	return max(byChars, byWords)
}

var (
	_ Counter = (*TiktokenCounter)(nil)
	_ Counter = HeuristicCounter{}
)
