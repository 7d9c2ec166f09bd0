// Package provider holds the thin clients for the external services the
// creation pipeline calls: text generation, image generation, image hosting
// and PDF text extraction.
package provider

import (
	"context"
	"errors"
	"io"
)

var (
	ErrEmptyCompletion = errors.New("provider returned an empty completion")
	ErrNoText          = errors.New("no text could be extracted")
)

type TextRequest struct {
	Prompt    string
	MaxTokens int
}

// TextGenerator produces a single completion for a prompt.
type TextGenerator interface {
	Generate(ctx context.Context, req TextRequest) (string, error)
}

// ImageGenerator renders an image from a text prompt and returns the encoded bytes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
}

type UploadOptions struct {
	Folder string
	// Transformation is applied eagerly on upload, e.g. "e_background_removal".
	Transformation string
}

type HostedImage struct {
	PublicID  string
	SecureURL string
}

// ImageHost stores images and builds delivery URLs with on-the-fly transformations.
type ImageHost interface {
	Upload(ctx context.Context, r io.Reader, opts UploadOptions) (*HostedImage, error)
	TransformURL(publicID, transformation string) (string, error)
}

// TextExtractor pulls plain text out of a document.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (string, error)
}
