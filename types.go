package webrender

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Image format constants. These map directly onto Chrome's screenshot formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWEBP = "webp"
)

// Response encoding constants.
const (
	EncodingBinary = "binary"
	EncodingBase64 = "base64"
)

// Scale bounds match Chrome's printToPDF scale range.
const (
	MinScale     = 0.1
	MaxScale     = 2.0
	DefaultScale = 1.0
)

// Quality bounds as accepted by the JPEG/WEBP encoders.
const (
	MinQuality     = 0
	MaxQuality     = 100
	DefaultQuality = 100
)

// Default viewport applied when the request does not specify one.
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// DefaultMaxFileSize is the image byte budget when the request omits it (4 MiB).
const DefaultMaxFileSize = 4 << 20

// Target identifies what to load into the page: a URL to navigate to, or raw
// HTML markup to inject. At least one must be non-empty; when both are given
// the URL wins at capture time.
type Target struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
}

// Validate checks the target rules: a present URL must parse as an absolute
// URL, a present HTML string must not be blank, and at least one of the two
// must be provided.
func (t *Target) Validate() error {
	if t.URL == "" && t.HTML == "" {
		return ErrMissingTarget
	}
	if t.URL != "" {
		u, err := url.ParseRequestURI(t.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidURL, t.URL)
		}
	}
	if t.URL == "" && strings.TrimSpace(t.HTML) == "" {
		return ErrInvalidHTML
	}
	return nil
}

// Rect is a capture clip region in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the emulated browser viewport applied before navigation.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Margin holds PDF page margins in inches.
type Margin struct {
	Top    float64 `json:"top,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
}

// ExportOptions is the option base shared by PDF and image requests.
// Quality and FullPage are pointers so that an explicit zero/false can be
// told apart from an omitted field during defaulting.
type ExportOptions struct {
	Scale          float64   `json:"scale,omitempty"`
	Format         string    `json:"type,omitempty"`
	Quality        *int      `json:"quality,omitempty"`
	FullPage       *bool     `json:"fullPage,omitempty"`
	Clip           *Rect     `json:"clip,omitempty"`
	OmitBackground bool      `json:"omitBackground,omitempty"`
	Encoding       string    `json:"encoding,omitempty"`
	Viewport       *Viewport `json:"viewport,omitempty"`
}

// normalize applies defaults for omitted fields. It does not clamp: values
// outside their bounds are left as-is for validate to reject.
func (o *ExportOptions) normalize() {
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Format == "" {
		o.Format = FormatPNG
	}
	if o.Quality == nil {
		q := DefaultQuality
		o.Quality = &q
	}
	if o.FullPage == nil {
		fp := true
		o.FullPage = &fp
	}
	if o.Encoding == "" {
		o.Encoding = EncodingBinary
	}
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
}

// validate bound-checks the shared fields. Out-of-range values are rejected,
// never silently clamped.
func (o *ExportOptions) validate() error {
	if o.Scale < MinScale || o.Scale > MaxScale {
		return fmt.Errorf("%w: %.2f (must be between %.1f and %.0f)", ErrInvalidScale, o.Scale, MinScale, MaxScale)
	}
	switch o.Format {
	case FormatJPEG, FormatPNG, FormatWEBP:
	default:
		return fmt.Errorf("%w: %q (must be jpeg, png, or webp)", ErrInvalidFormat, o.Format)
	}
	if q := *o.Quality; q < MinQuality || q > MaxQuality {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidQuality, q, MinQuality, MaxQuality)
	}
	switch o.Encoding {
	case EncodingBinary, EncodingBase64:
	default:
		return fmt.Errorf("%w: %q (must be binary or base64)", ErrInvalidEncoding, o.Encoding)
	}
	if v := o.Viewport; v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("%w: %dx%d (width and height must be positive)", ErrInvalidViewport, v.Width, v.Height)
	}
	if c := o.Clip; c != nil && (c.Width <= 0 || c.Height <= 0) {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidClip)
	}
	return nil
}

// PDFRequest is a validated request to render a page as PDF.
type PDFRequest struct {
	Target
	Export PDFExportOptions `json:"export"`
}

// PDFExportOptions extends the shared base with PDF-only fields.
type PDFExportOptions struct {
	ExportOptions
	Margin          *Margin `json:"margin,omitempty"`
	PrintBackground bool    `json:"printBackground,omitempty"`
}

// Normalize applies defaults and then validates the request. The request is
// treated as immutable once this returns nil.
func (r *PDFRequest) Normalize() error {
	r.Export.normalize()
	if r.Export.Margin == nil {
		r.Export.Margin = &Margin{}
	}
	if err := r.Target.Validate(); err != nil {
		return err
	}
	if err := r.Export.validate(); err != nil {
		return err
	}
	m := r.Export.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return fmt.Errorf("%w: margins cannot be negative", ErrInvalidMargin)
	}
	return nil
}

// ImageRequest is a validated request to render a page as a raster image.
type ImageRequest struct {
	Target
	Export ImageExportOptions `json:"export"`
}

// ImageExportOptions extends the shared base with the image byte budget.
type ImageExportOptions struct {
	ExportOptions
	MaxFileSize int `json:"maxFileSize,omitempty"`
}

// Normalize applies defaults and then validates the request.
func (r *ImageRequest) Normalize() error {
	r.Export.normalize()
	if r.Export.MaxFileSize == 0 {
		r.Export.MaxFileSize = DefaultMaxFileSize
	}
	if err := r.Target.Validate(); err != nil {
		return err
	}
	if err := r.Export.validate(); err != nil {
		return err
	}
	if r.Export.MaxFileSize < 0 {
		return fmt.Errorf("%w: %d (must be positive)", ErrInvalidMaxFileSize, r.Export.MaxFileSize)
	}
	return nil
}

// MarkdownRequest is a request to render markdown content as PDF. The
// markdown is converted to a standalone HTML document and then follows the
// regular HTML-to-PDF path.
type MarkdownRequest struct {
	Markdown string           `json:"markdown"`
	Export   PDFExportOptions `json:"export"`
}

// Normalize validates the markdown payload and the PDF export options.
func (r *MarkdownRequest) Normalize() error {
	if strings.TrimSpace(r.Markdown) == "" {
		return ErrMissingMarkdown
	}
	r.Export.normalize()
	if r.Export.Margin == nil {
		r.Export.Margin = &Margin{}
	}
	return r.Export.validate()
}

// Option configures a Service.
type Option func(*Service)

// serviceConfig holds internal configuration for Service.
type serviceConfig struct {
	timeout time.Duration
}

// defaultTimeout is used when no load timeout is specified.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-request page load timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("webrender: WithTimeout duration must be positive")
	}
	return func(s *Service) {
		s.cfg.timeout = d
	}
}

// WithBrowser injects a shared browser handle. Several services can share a
// single handle; the handle connects lazily on first use.
func WithBrowser(b *Browser) Option {
	return func(s *Service) {
		s.browser = b
	}
}
