package webrender

// Notes:
// - mockCapturer records requests and returns canned bytes
// - Validation failures must surface before the capturer is touched
// - Image path: capture output flows through the fitter, then the encoding
// - Markdown path: converted HTML feeds the regular PDF capture

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// Mock implementations for testing.

type mockCapturer struct {
	pdfCalled   bool
	imageCalled bool
	pdfReq      *PDFRequest
	imageReq    *ImageRequest
	pdfOut      []byte
	imageOut    []byte
	err         error
}

func (m *mockCapturer) CapturePDF(ctx context.Context, req *PDFRequest) ([]byte, error) {
	m.pdfCalled = true
	m.pdfReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.pdfOut != nil {
		return m.pdfOut, nil
	}
	return []byte("%PDF-1.4 mock"), nil
}

func (m *mockCapturer) CaptureImage(ctx context.Context, req *ImageRequest) ([]byte, error) {
	m.imageCalled = true
	m.imageReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.imageOut != nil {
		return m.imageOut, nil
	}
	return []byte("raw-image-bytes"), nil
}

type mockMarkdown struct {
	called bool
	input  string
	err    error
}

func (m *mockMarkdown) ToHTML(ctx context.Context, content string) (string, error) {
	m.called = true
	m.input = content
	if m.err != nil {
		return "", m.err
	}
	return "<html><body>" + content + "</body></html>", nil
}

// newTestService wires a Service with mocks, bypassing browser creation.
func newTestService(rec *mockCapturer, md markdownConverter) *Service {
	if md == nil {
		md = &mockMarkdown{}
	}
	return &Service{
		cfg:      serviceConfig{timeout: defaultTimeout},
		renderer: rec,
		fitter:   newFitter(),
		markdown: md,
	}
}

// ---------------------------------------------------------------------------
// TestService_RenderPDF
// ---------------------------------------------------------------------------

func TestService_RenderPDF(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{}
	svc := newTestService(rec, nil)

	got, err := svc.RenderPDF(context.Background(), &PDFRequest{Target: Target{HTML: "<h1>hi</h1>"}})
	if err != nil {
		t.Fatalf("RenderPDF() unexpected error: %v", err)
	}
	if string(got) != "%PDF-1.4 mock" {
		t.Errorf("RenderPDF() = %q, want mock PDF bytes", got)
	}
	if !rec.pdfCalled {
		t.Fatal("capturer was not called")
	}
	// The capturer sees the normalized request.
	if rec.pdfReq.Export.Scale != DefaultScale {
		t.Errorf("capturer saw scale %v, want default %v", rec.pdfReq.Export.Scale, DefaultScale)
	}
	if rec.pdfReq.Export.Margin == nil {
		t.Error("capturer saw nil margin, want zero margins")
	}
}

func TestService_RenderPDF_ValidationFailsBeforeCapture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		req     *PDFRequest
		wantErr error
	}{
		{
			name:    "missing target",
			req:     &PDFRequest{},
			wantErr: ErrMissingTarget,
		},
		{
			name:    "bad url",
			req:     &PDFRequest{Target: Target{URL: "not a url"}},
			wantErr: ErrInvalidURL,
		},
		{
			name: "bad scale",
			req: &PDFRequest{
				Target: Target{HTML: "<p>x</p>"},
				Export: PDFExportOptions{ExportOptions: ExportOptions{Scale: 99}},
			},
			wantErr: ErrInvalidScale,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &mockCapturer{}
			svc := newTestService(rec, nil)

			_, err := svc.RenderPDF(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("RenderPDF() error = %v, wantErr %v", err, tt.wantErr)
			}
			if rec.pdfCalled {
				t.Error("capturer must not run for invalid requests")
			}
		})
	}
}

func TestService_RenderPDF_Base64(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{pdfOut: []byte("pdf-bytes")}
	svc := newTestService(rec, nil)

	got, err := svc.RenderPDF(context.Background(), &PDFRequest{
		Target: Target{HTML: "<p>x</p>"},
		Export: PDFExportOptions{ExportOptions: ExportOptions{Encoding: EncodingBase64}},
	})
	if err != nil {
		t.Fatalf("RenderPDF() unexpected error: %v", err)
	}
	want := base64.StdEncoding.EncodeToString([]byte("pdf-bytes"))
	if string(got) != want {
		t.Errorf("RenderPDF() = %q, want %q", got, want)
	}
}

func TestService_RenderPDF_CaptureErrorPropagates(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{err: ErrPageLoad}
	svc := newTestService(rec, nil)

	_, err := svc.RenderPDF(context.Background(), &PDFRequest{Target: Target{HTML: "<p>x</p>"}})
	if !errors.Is(err, ErrPageLoad) {
		t.Errorf("RenderPDF() error = %v, want ErrPageLoad", err)
	}
}

// ---------------------------------------------------------------------------
// TestService_RenderImage
// ---------------------------------------------------------------------------

func TestService_RenderImage_SmallCaptureSkipsFitting(t *testing.T) {
	t.Parallel()

	// Capture output is tiny, so the fitter's fast path applies and the
	// bytes pass through untouched even though they are not decodable.
	rec := &mockCapturer{imageOut: []byte("small")}
	svc := newTestService(rec, nil)

	got, err := svc.RenderImage(context.Background(), &ImageRequest{Target: Target{URL: "https://example.com"}})
	if err != nil {
		t.Fatalf("RenderImage() unexpected error: %v", err)
	}
	if string(got) != "small" {
		t.Errorf("RenderImage() = %q, want passthrough bytes", got)
	}
	if !rec.imageCalled {
		t.Fatal("capturer was not called")
	}
	if rec.imageReq.Export.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("capturer saw budget %d, want default %d", rec.imageReq.Export.MaxFileSize, DefaultMaxFileSize)
	}
}

func TestService_RenderImage_OversizedCaptureIsFitted(t *testing.T) {
	t.Parallel()

	codec := stdCodec{}
	oversized, err := codec.Encode(testImage(256, 256), FormatJPEG, 100)
	if err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	budget := len(oversized) / 2

	rec := &mockCapturer{imageOut: oversized}
	svc := newTestService(rec, nil)

	got, err := svc.RenderImage(context.Background(), &ImageRequest{
		Target: Target{URL: "https://example.com"},
		Export: ImageExportOptions{
			ExportOptions: ExportOptions{Format: FormatJPEG},
			MaxFileSize:   budget,
		},
	})
	if err != nil {
		t.Fatalf("RenderImage() unexpected error: %v", err)
	}
	if len(got) > budget {
		t.Errorf("fitted size %d exceeds budget %d", len(got), budget)
	}
}

func TestService_RenderImage_ValidationFailsBeforeCapture(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{}
	svc := newTestService(rec, nil)

	_, err := svc.RenderImage(context.Background(), &ImageRequest{})
	if !errors.Is(err, ErrMissingTarget) {
		t.Errorf("RenderImage() error = %v, want ErrMissingTarget", err)
	}
	if rec.imageCalled {
		t.Error("capturer must not run for invalid requests")
	}
}

// ---------------------------------------------------------------------------
// TestService_RenderMarkdown
// ---------------------------------------------------------------------------

func TestService_RenderMarkdown(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{}
	md := &mockMarkdown{}
	svc := newTestService(rec, md)

	got, err := svc.RenderMarkdown(context.Background(), &MarkdownRequest{Markdown: "# Title"})
	if err != nil {
		t.Fatalf("RenderMarkdown() unexpected error: %v", err)
	}
	if len(got) == 0 {
		t.Error("RenderMarkdown() returned no bytes")
	}
	if !md.called {
		t.Fatal("markdown converter was not called")
	}
	if md.input != "# Title" {
		t.Errorf("converter input = %q, want %q", md.input, "# Title")
	}
	if !rec.pdfCalled {
		t.Fatal("capturer was not called")
	}
	if !strings.Contains(rec.pdfReq.Target.HTML, "# Title") {
		t.Errorf("capturer target HTML = %q, want converted document", rec.pdfReq.Target.HTML)
	}
}

func TestService_RenderMarkdown_EmptyMarkdown(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{}
	svc := newTestService(rec, nil)

	_, err := svc.RenderMarkdown(context.Background(), &MarkdownRequest{})
	if !errors.Is(err, ErrMissingMarkdown) {
		t.Errorf("RenderMarkdown() error = %v, want ErrMissingMarkdown", err)
	}
	if rec.pdfCalled {
		t.Error("capturer must not run for invalid requests")
	}
}

func TestService_RenderMarkdown_ConversionErrorPropagates(t *testing.T) {
	t.Parallel()

	rec := &mockCapturer{}
	md := &mockMarkdown{err: ErrHTMLConversion}
	svc := newTestService(rec, md)

	_, err := svc.RenderMarkdown(context.Background(), &MarkdownRequest{Markdown: "# x"})
	if !errors.Is(err, ErrHTMLConversion) {
		t.Errorf("RenderMarkdown() error = %v, want ErrHTMLConversion", err)
	}
	if rec.pdfCalled {
		t.Error("capturer must not run when conversion fails")
	}
}
