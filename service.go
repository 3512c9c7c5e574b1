package webrender

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Service orchestrates the render pipeline: validate and normalize the
// request, drive one browser page through capture, and for image output fit
// the bytes under the requested byte budget. A Service holds no per-request
// state; concurrent calls share only the browser handle.
type Service struct {
	cfg      serviceConfig
	browser  *Browser
	renderer capturer
	fitter   *Fitter
	markdown markdownConverter
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithBrowser).
func New(opts ...Option) *Service {
	s := &Service{
		cfg:      serviceConfig{timeout: defaultTimeout},
		markdown: newGoldmarkConverter(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.browser == nil {
		s.browser = NewBrowser()
	}

	// Create collaborators if not injected (e.g., by tests)
	if s.renderer == nil {
		s.renderer = newRodRenderer(s.browser, s.cfg.timeout)
	}
	if s.fitter == nil {
		s.fitter = newFitter()
	}

	return s
}

// EnsureLaunched eagerly connects the shared browser. Rendering launches it
// lazily anyway; calling this at startup surfaces launch problems early.
func (s *Service) EnsureLaunched() error {
	return s.browser.EnsureLaunched()
}

// RenderPDF validates the request and renders the target as PDF bytes.
func (s *Service) RenderPDF(ctx context.Context, req *PDFRequest) ([]byte, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	pdfBytes, err := s.renderer.CapturePDF(ctx, req)
	if err != nil {
		return nil, err
	}

	return encodeOutput(pdfBytes, req.Export.Encoding), nil
}

// RenderImage validates the request, renders the target as image bytes, and
// fits the result under the request's byte budget. The budget is best-effort:
// when no ladder candidate meets it, the oversized capture is returned.
func (s *Service) RenderImage(ctx context.Context, req *ImageRequest) ([]byte, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	raw, err := s.renderer.CaptureImage(ctx, req)
	if err != nil {
		return nil, err
	}

	fitted, err := s.fitter.Fit(ctx, raw, req.Export.Format, req.Export.MaxFileSize, *req.Export.Quality)
	if err != nil {
		return nil, fmt.Errorf("fitting image: %w", err)
	}

	return encodeOutput(fitted, req.Export.Encoding), nil
}

// RenderMarkdown converts markdown to a standalone HTML document and renders
// it through the regular HTML-to-PDF path.
func (s *Service) RenderMarkdown(ctx context.Context, req *MarkdownRequest) ([]byte, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	htmlContent, err := s.markdown.ToHTML(ctx, req.Markdown)
	if err != nil {
		return nil, err
	}

	pdfReq := &PDFRequest{
		Target: Target{HTML: htmlContent},
		Export: req.Export,
	}

	pdfBytes, err := s.renderer.CapturePDF(ctx, pdfReq)
	if err != nil {
		return nil, err
	}

	return encodeOutput(pdfBytes, req.Export.Encoding), nil
}

// Close releases the shared browser.
func (s *Service) Close() error {
	if s.browser != nil {
		return s.browser.Close()
	}
	return nil
}

// encodeOutput applies the requested response encoding. The byte budget is
// always judged against the raw bytes, before any base64 expansion.
func encodeOutput(data []byte, encoding string) []byte {
	if encoding == EncodingBase64 {
		out := make([]byte, base64.StdEncoding.EncodedLen(len(data)))
		base64.StdEncoding.Encode(out, data)
		return out
	}
	return data
}
