package webrender

import (
	"context"
	"math"
)

// Ladder parameters for adaptive fitting.
const (
	// qualityStep is the decrement between quality candidates.
	qualityStep = 10

	// minLadderQuality is the lowest quality attempted in phase 1.
	minLadderQuality = 10

	// rescaleQuality is the fixed re-encode quality used while downscaling.
	rescaleQuality = 70

	// Scale candidates run from maxScaleTenths/10 down to minScaleTenths/10.
	maxScaleTenths = 9
	minScaleTenths = 3
)

// Fitter produces image bytes no larger than a byte budget, when achievable,
// by trading quality first and resolution second. Quality reduction is tried
// first because it is a single re-encode and preserves dimensions;
// downscaling changes visual fidelity more drastically and is the last
// resort. When nothing fits, the original bytes come back unchanged and the
// caller gets a best-effort result, not an error.
type Fitter struct {
	codec imageCodec
}

// newFitter creates a Fitter backed by the standard codec.
func newFitter() *Fitter {
	return &Fitter{codec: stdCodec{}}
}

// qualityLadder returns the phase-1 quality candidates. The capture is
// already encoded at initialQuality, so the first candidate sits one step
// below it; candidates descend in steps of 10 down to 10. The slice is at
// most 9 long.
func qualityLadder(initialQuality int) []int {
	if initialQuality <= 0 || initialQuality > MaxQuality {
		initialQuality = MaxQuality
	}
	var ladder []int
	for q := initialQuality - qualityStep; q >= minLadderQuality; q -= qualityStep {
		ladder = append(ladder, q)
	}
	return ladder
}

// scaleLadder returns the phase-2 scale candidates 0.9, 0.8, ... 0.3.
func scaleLadder() []float64 {
	var ladder []float64
	for tenths := maxScaleTenths; tenths >= minScaleTenths; tenths-- {
		ladder = append(ladder, float64(tenths)/10)
	}
	return ladder
}

// Fit returns bytes no larger than maxFileSize when any ladder candidate
// achieves it, and the unmodified input otherwise. Input that already meets
// the budget is returned as-is without decoding. Corrupt input that needs
// re-encoding fails with ErrImageDecode.
func (f *Fitter) Fit(ctx context.Context, data []byte, format string, maxFileSize, initialQuality int) ([]byte, error) {
	if maxFileSize <= 0 || len(data) <= maxFileSize {
		return data, nil
	}

	img, err := f.codec.Decode(data)
	if err != nil {
		return nil, err
	}

	// Phase 1: walk the quality ladder on the original pixels.
	for _, quality := range qualityLadder(initialQuality) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		encoded, err := f.codec.Encode(img, format, quality)
		if err != nil {
			return nil, err
		}
		if len(encoded) <= maxFileSize {
			return encoded, nil
		}
	}

	// Phase 2: walk the scale ladder, re-encoding at a fixed quality.
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	for _, scale := range scaleLadder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scaledW := int(math.Floor(float64(width) * scale))
		scaledH := int(math.Floor(float64(height) * scale))
		if scaledW < 1 || scaledH < 1 {
			continue
		}
		resized := f.codec.Resize(img, scaledW, scaledH)
		encoded, err := f.codec.Encode(resized, format, rescaleQuality)
		if err != nil {
			return nil, err
		}
		if len(encoded) <= maxFileSize {
			return encoded, nil
		}
	}

	// Best effort: budget not met by any candidate.
	return data, nil
}
