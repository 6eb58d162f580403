package ai

import (
	"context"
	"errors"
)

// Modality identifies how the submission content is attached to a request.
type Modality string

const (
	// ModalityText interpolates the content into the user prompt.
	ModalityText Modality = "text"
	// ModalityImage attaches the content as an image reference (data URI or URL).
	ModalityImage Modality = "image"
)

// ErrEmptyCompletion indicates the provider answered without any usable choice.
var ErrEmptyCompletion = errors.New("inference returned no content")

// Request is a single instruction payload sent to the inference provider.
type Request struct {
	// Operation labels metrics and spans, e.g. "essay_grading" or "theme_generation".
	Operation    string
	Instructions string
	Prompt       string
	Modality     Modality
	// Content holds the image reference for ModalityImage. Text content is already part of Prompt.
	Content     string
	Temperature float32
	MaxTokens   int
	// JSONOutput asks the provider to constrain the reply to a single JSON object.
	JSONOutput bool
}

// Client describes an inference provider that turns one request into free-form text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
