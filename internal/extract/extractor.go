// Package extract pulls a person's name out of a free-text reply.
package extract

import (
	"context"
	"strings"
)

// Prompt is the fixed instruction sent to text-generation providers.
const Prompt = "Extract the person's name from this message. Return only the name, nothing else, no punctuation: "

// Extractor returns a best-guess person name from free text.
type Extractor interface {
	Extract(ctx context.Context, text string) (string, error)
}

// Clean trims whitespace and trailing sentence punctuation from a model answer.
func Clean(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,!?")
}

// Passthrough treats the whole message as the name.
type Passthrough struct{}

func NewPassthrough() *Passthrough { return &Passthrough{} }

func (Passthrough) Extract(_ context.Context, text string) (string, error) {
	return strings.TrimSpace(text), nil
}
