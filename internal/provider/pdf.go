package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextExtractor reads the text layer of a PDF document.
type PDFTextExtractor struct{}

func NewPDFTextExtractor() *PDFTextExtractor { return &PDFTextExtractor{} }

type extractResult struct {
	text string
	err  error
}

// ExtractText parses data off the calling goroutine so ctx can bound it.
func (PDFTextExtractor) ExtractText(ctx context.Context, data []byte) (string, error) {
	done := make(chan extractResult, 1)
	go func() {
		text, err := extractPDFText(data)
		done <- extractResult{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		return res.text, res.err
	}
}

func extractPDFText(data []byte) (text string, err error) {
	// 解析器遇到损坏文件会 panic
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf: malformed document: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf: %w", err)
	}
	text = strings.TrimSpace(string(b))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
