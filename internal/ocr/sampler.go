package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docufield/passport-extract/internal/imaging"
)

// passportWhitelist constrains sampling passes to the characters that appear
// in printed issue-date lines.
const passportWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 .,:-/"

// Sample is one labeled OCR text sample. Labels carry provenance into
// candidate arbitration and the result's diagnostics.
type Sample struct {
	Label string
	Text  string
}

// Region sample labels.
const (
	LabelUpperMiddle = "upper_middle"
	LabelLeftSide    = "left_side"
	LabelRightSide   = "right_side"
)

// fullImageConfigs are the whole-image passes; they differ only in page
// segmentation.
var fullImageConfigs = []struct {
	label string
	psm   int
}{
	{"full_image_cfg1", PSMSingleBlock},
	{"full_image_cfg2", PSMSingleWord},
	{"full_image_cfg3", PSMSingleLine},
}

// samplingRegions are the passport areas where issue-date lines are printed.
// upper_middle is the usual location and is preferred during arbitration.
var samplingRegions = []struct {
	label  string
	region imaging.Region
}{
	{LabelUpperMiddle, imaging.Region{X0: 0, Y0: 0.3, X1: 1, Y1: 0.7}},
	{LabelLeftSide, imaging.Region{X0: 0, Y0: 0.4, X1: 0.6, Y1: 0.8}},
	{LabelRightSide, imaging.Region{X0: 0.4, Y0: 0.4, X1: 1, Y1: 0.8}},
}

// Sampler produces labeled text samples from a passport scan.
type Sampler struct {
	engine Engine
	base   Config
	logger *slog.Logger
}

// NewSampler wraps an engine with the sampling strategies. base supplies
// language/tessdata/OEM; segmentation and whitelist are fixed per pass.
func NewSampler(engine Engine, base Config, logger *slog.Logger) *Sampler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{engine: engine, base: base, logger: logger}
}

// FullImageSamples runs the three whole-image configurations and returns one
// labeled sample per configuration. A failing pass yields the empty sample for
// its label; the returned error is non-nil only when every pass failed.
func (s *Sampler) FullImageSamples(ctx context.Context, image []byte) ([]Sample, error) {
	samples := make([]Sample, 0, len(fullImageConfigs))
	var errs []error
	for _, fc := range fullImageConfigs {
		cfg := s.base
		cfg.PageSegMode = fc.psm
		cfg.Whitelist = passportWhitelist

		text, err := s.engine.Recognize(ctx, image, cfg)
		if err != nil {
			s.logger.Debug("ocr pass failed", "label", fc.label, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", fc.label, err))
			samples = append(samples, Sample{Label: fc.label})
			continue
		}
		samples = append(samples, Sample{Label: fc.label, Text: text})
	}
	if len(errs) == len(fullImageConfigs) {
		return samples, errors.Join(errs...)
	}
	return samples, nil
}

// RegionSamples crops each sampling region and runs one single-block pass per
// crop. Every region contributes a labeled sample even when cropping or
// recognition fails; the returned error is non-nil only when every region
// failed.
func (s *Sampler) RegionSamples(ctx context.Context, image []byte) ([]Sample, error) {
	samples := make([]Sample, 0, len(samplingRegions))
	var errs []error
	for _, sr := range samplingRegions {
		cropped, err := imaging.CropToPNG(image, sr.region)
		if err != nil {
			s.logger.Debug("region crop failed", "label", sr.label, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sr.label, err))
			samples = append(samples, Sample{Label: sr.label})
			continue
		}

		cfg := s.base
		cfg.PageSegMode = PSMSingleBlock
		cfg.Whitelist = passportWhitelist

		text, err := s.engine.Recognize(ctx, cropped, cfg)
		if err != nil {
			s.logger.Debug("region ocr failed", "label", sr.label, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sr.label, err))
			samples = append(samples, Sample{Label: sr.label})
			continue
		}
		samples = append(samples, Sample{Label: sr.label, Text: text})
	}
	if len(errs) == len(samplingRegions) {
		return samples, errors.Join(errs...)
	}
	return samples, nil
}
