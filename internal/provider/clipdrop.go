package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/d60-Lab/creation-studio/config"
)

const (
	clipDropTextToImagePath = "/text-to-image/v1"
	// 1024x1024 PNG 通常在 2MB 以内
	clipDropMaxResponseBytes = 16 << 20
)

// ClipDropImageGenerator calls the ClipDrop text-to-image endpoint.
type ClipDropImageGenerator struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	maxBytes int64
}

func NewClipDropImageGenerator(cfg config.ClipDropConfig, client *http.Client) *ClipDropImageGenerator {
	if client == nil {
		client = http.DefaultClient
	}
	return &ClipDropImageGenerator{
		apiKey:   cfg.APIKey,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		client:   client,
		maxBytes: clipDropMaxResponseBytes,
	}
}

func (g *ClipDropImageGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("prompt", prompt); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+clipDropTextToImagePath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("x-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("clipdrop request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("clipdrop read body: %w", err)
	}
	if int64(len(data)) > g.maxBytes {
		return nil, fmt.Errorf("clipdrop: response exceeds %d bytes", g.maxBytes)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("clipdrop: status %d: %s", resp.StatusCode, msg)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("clipdrop: empty image")
	}
	return data, nil
}
