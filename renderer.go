package webrender

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// capturer abstracts page capture to allow different backends and to enable
// testing without a browser.
type capturer interface {
	CapturePDF(ctx context.Context, req *PDFRequest) ([]byte, error)
	CaptureImage(ctx context.Context, req *ImageRequest) ([]byte, error)
}

// Compile-time interface check
var _ capturer = (*rodRenderer)(nil)

// rodRenderer implements capturer using go-rod. Each capture opens a fresh
// page on the shared browser session and closes it when done, on both the
// success and the failure path.
type rodRenderer struct {
	browser *Browser
	timeout time.Duration
}

// newRodRenderer creates a rodRenderer with the given load timeout.
func newRodRenderer(browser *Browser, timeout time.Duration) *rodRenderer {
	return &rodRenderer{browser: browser, timeout: timeout}
}

// preparePage opens a page, applies the viewport, loads the target content
// and waits for the load event. The caller owns the returned page and must
// close it; on error no page is leaked.
func (r *rodRenderer) preparePage(ctx context.Context, target Target, vp *Viewport, scaleFactor float64) (*rod.Page, error) {
	// Check context before starting
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.browser.EnsureLaunched(); err != nil {
		return nil, err
	}
	session, err := r.browser.Session()
	if err != nil {
		return nil, err
	}

	page, err := session.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	ok := false
	defer func() {
		if !ok {
			_ = page.Close()
		}
	}()

	if vp != nil {
		err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             vp.Width,
			Height:            vp.Height,
			DeviceScaleFactor: scaleFactor,
			Mobile:            false,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageLoad, err)
		}
	}

	// Load timeout from context deadline or the configured default
	timeout := r.timeout
	if deadline, hasDeadline := ctx.Deadline(); hasDeadline {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	timed := page.Timeout(timeout)

	switch {
	case target.URL != "":
		if err := timed.Navigate(target.URL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
		}
	case target.HTML != "":
		if err := timed.SetDocumentContent(target.HTML); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
		}
	default:
		// Validation catches this before any browser resource is touched;
		// kept as defense in depth for direct library callers.
		return nil, ErrMissingTarget
	}

	if err := timed.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	ok = true
	return page, nil
}

// CapturePDF renders the target and prints it to PDF with the requested
// export options. Clip and fullPage do not apply to PDF printing.
func (r *rodRenderer) CapturePDF(ctx context.Context, req *PDFRequest) ([]byte, error) {
	page, err := r.preparePage(ctx, req.Target, req.Export.Viewport, 1)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	m := req.Export.Margin
	pdfOpts := &proto.PagePrintToPDF{
		Scale:           floatPtr(req.Export.Scale),
		MarginTop:       floatPtr(m.Top),
		MarginRight:     floatPtr(m.Right),
		MarginBottom:    floatPtr(m.Bottom),
		MarginLeft:      floatPtr(m.Left),
		PrintBackground: req.Export.PrintBackground,
	}

	reader, err := page.PDF(pdfOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFCapture, err)
	}

	pdfBuf, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFCapture, err)
	}

	return pdfBuf, nil
}

// CaptureImage renders the target and takes a screenshot with the requested
// export options. A clip region overrides fullPage when both are given.
func (r *rodRenderer) CaptureImage(ctx context.Context, req *ImageRequest) ([]byte, error) {
	// The device scale factor is the screenshot counterpart of the PDF
	// print scale.
	page, err := r.preparePage(ctx, req.Target, req.Export.Viewport, req.Export.Scale)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if req.Export.OmitBackground {
		err := proto.EmulationSetDefaultBackgroundColorOverride{
			Color: &proto.DOMRGBA{R: 0, G: 0, B: 0, A: floatPtr(0)},
		}.Call(page)
		if err != nil {
			return nil, fmt.Errorf("%w: omitting background: %v", ErrScreenshotCapture, err)
		}
	}

	shot := &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormat(req.Export.Format),
	}
	if req.Export.Format == FormatJPEG {
		shot.Quality = intPtr(*req.Export.Quality)
	}

	fullPage := *req.Export.FullPage
	if c := req.Export.Clip; c != nil {
		shot.Clip = &proto.PageViewport{
			X:      c.X,
			Y:      c.Y,
			Width:  c.Width,
			Height: c.Height,
			Scale:  1,
		}
		fullPage = false
	}

	data, err := page.Screenshot(fullPage, shot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScreenshotCapture, err)
	}

	return data, nil
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

// intPtr returns a pointer to an int value.
func intPtr(v int) *int {
	return &v
}
