// Package webrender renders a URL or raw HTML markup into PDF or raster-image
// bytes using headless Chrome.
//
// # Quick Start
//
// Create a service, render, and close when done:
//
//	svc := webrender.New()
//	defer svc.Close()
//
//	pdf, err := svc.RenderPDF(ctx, &webrender.PDFRequest{
//	    Target: webrender.Target{HTML: "<h1>hi</h1>"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.pdf", pdf, 0644)
//
// # Rendering Pipeline
//
// Each request travels one way through three stages:
//
//  1. Validation: defaults are applied and every option is bound-checked;
//     out-of-range values are rejected, never clamped.
//  2. Capture: a fresh page is opened on the shared browser session, the
//     viewport is applied, the target is loaded (URL navigation or injected
//     markup), and Chrome's native printToPDF or screenshot API produces the
//     bytes. The page is closed on success and failure alike.
//  3. Fitting (images only): when the capture exceeds the request's
//     maxFileSize, the bytes are re-encoded down a fixed quality ladder and,
//     failing that, a fixed downscale ladder. The budget is best-effort: if
//     nothing fits, the original capture is returned unchanged.
//
// # Shared Browser
//
// All requests share one long-lived browser connection held by Browser. The
// connection is established lazily and exactly once; each request only opens
// and closes its own page, so requests run concurrently at the I/O level.
//
// # Browser Requirements
//
// Rendering requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
// Use ROD_BROWSER_BIN to point at a pre-installed binary in containers; CI
// and container environments run with the sandbox disabled.
package webrender
