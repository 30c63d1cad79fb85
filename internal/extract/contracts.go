package extract

import (
	"context"

	"github.com/docufield/passport-extract/internal/ocr"
)

// TextSampler is the sampling stage: scan bytes -> labeled text samples.
// *ocr.Sampler is the production implementation.
type TextSampler interface {
	FullImageSamples(ctx context.Context, image []byte) ([]ocr.Sample, error)
	RegionSamples(ctx context.Context, image []byte) ([]ocr.Sample, error)
}
