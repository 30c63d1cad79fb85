// Package ocr converts passport scan pixels to text samples for the
// field-recovery pipeline. Recognition itself is delegated to an Engine;
// the Sampler decides what to recognize and under which parameters.
package ocr

import "context"

// Tesseract page segmentation modes used by the sampler.
const (
	PSMSingleBlock = 6
	PSMSingleLine  = 7
	PSMSingleWord  = 8
)

// Config is the explicit parameter set for a single OCR invocation. There is
// no ambient OCR state; every call carries its own configuration.
type Config struct {
	PageSegMode int
	Whitelist   string
	Language    string // default "eng"
	TessdataDir string
	EngineMode  int // tesseract OEM, exec engine only
}

// Engine converts image bytes to text under an explicit configuration.
type Engine interface {
	Recognize(ctx context.Context, image []byte, cfg Config) (string, error)
}
