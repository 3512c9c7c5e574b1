package webrender

import "errors"

// Sentinel errors for library operations.
var (
	// Request validation errors. ErrMissingTarget keeps its capitalized,
	// caller-facing wording because the message is part of the HTTP contract.
	ErrMissingTarget      = errors.New("Either url or html must be provided")
	ErrInvalidURL         = errors.New("url must be a well-formed absolute URL")
	ErrInvalidHTML        = errors.New("html cannot be empty")
	ErrInvalidScale       = errors.New("invalid scale")
	ErrInvalidQuality     = errors.New("invalid quality")
	ErrInvalidFormat      = errors.New("invalid export type")
	ErrInvalidEncoding    = errors.New("invalid encoding")
	ErrInvalidViewport    = errors.New("invalid viewport")
	ErrInvalidClip        = errors.New("invalid clip")
	ErrInvalidMargin      = errors.New("invalid margin")
	ErrInvalidMaxFileSize = errors.New("invalid maxFileSize")
	ErrMissingMarkdown    = errors.New("markdown content cannot be empty")

	// Browser and capture errors.
	ErrBrowserConnect     = errors.New("failed to connect to browser")
	ErrBrowserNotLaunched = errors.New("browser has not been launched")
	ErrPageCreate         = errors.New("failed to create browser page")
	ErrPageLoad           = errors.New("failed to load page")
	ErrPDFCapture         = errors.New("PDF capture failed")
	ErrScreenshotCapture  = errors.New("screenshot capture failed")

	// Markdown pipeline errors.
	ErrHTMLConversion = errors.New("HTML conversion failed")

	// Image fitting errors.
	ErrImageDecode = errors.New("failed to decode image")
)
