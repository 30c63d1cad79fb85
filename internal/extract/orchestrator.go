package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/imaging"
	"github.com/docufield/passport-extract/internal/mrz"
	"github.com/docufield/passport-extract/internal/ocr"
)

// mrzBand is the bottom quarter of the scan, where the MRZ is printed.
var mrzBand = imaging.Region{X0: 0, Y0: 0.75, X1: 1, Y1: 1}

// Options are the orchestrator's feature flags. RegionSampling selects
// region-cropped date sampling over the whole-image passes; MRZCropFallback
// enables one retry of the MRZ reader against the cropped bottom band when
// the full image yields nothing.
type Options struct {
	RegionSampling  bool
	MRZCropFallback bool
}

// Orchestrator runs the extraction sequence for one image: MRZ read (with
// optional cropped-band fallback), date sampling, candidate arbitration and
// the final merge. One pass per image, no retries beyond the single fallback.
type Orchestrator struct {
	reader  mrz.Reader
	sampler TextSampler
	opts    Options
	logger  *slog.Logger
}

func NewOrchestrator(reader mrz.Reader, sampler TextSampler, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{reader: reader, sampler: sampler, opts: opts, logger: logger}
}

// Extract processes one image. Failures are encoded in the result document
// rather than returned: a failed MRZ capability yields a success=false
// result, an unavailable OCR capability yields an ocr_error diagnostic, and
// an absent field is simply null. The caller always receives a complete,
// marshalable result.
func (o *Orchestrator) Extract(ctx context.Context, imagePath string) *Result {
	logger := o.logger
	if jobID := common.JobIDFromContext(ctx); jobID != "" {
		logger = logger.With("job_id", jobID)
	}

	rec, err := o.reader.Read(ctx, imagePath)
	if err != nil {
		logger.Error("mrz read failed", "path", imagePath, "error", err)
		return NewFailure(fmt.Sprintf("mrz read failed: %v", err))
	}
	if rec == nil && o.opts.MRZCropFallback {
		rec = o.retryCroppedBand(ctx, imagePath, logger)
	}
	if rec == nil {
		logger.Info("no mrz recovered", "path", imagePath)
	}

	res := baseResult(rec)

	var samples []ocr.Sample
	data, err := os.ReadFile(imagePath)
	if err != nil {
		msg := fmt.Sprintf("read image: %v", err)
		res.OCRError = &msg
		logger.Error("date sampling skipped", "path", imagePath, "error", err)
	} else {
		if o.opts.RegionSampling {
			samples, err = o.sampler.RegionSamples(ctx, data)
		} else {
			samples, err = o.sampler.FullImageSamples(ctx, data)
		}
		if err != nil {
			msg := err.Error()
			res.OCRError = &msg
			logger.Error("date sampling unavailable", "path", imagePath, "error", err)
		}
	}

	res.IssueDateCandidates = candidatesFromSamples(samples, logger)
	if win := arbitrate(res.IssueDateCandidates); win != nil {
		res.IssueDate = win.Date
		res.ExtractedData.IssueDate = *win.Date
		logger.Info("issue date recovered", "date", *win.Date, "region", win.Region)
	}

	return res
}

// retryCroppedBand crops the MRZ band to a transient PNG and retries the
// reader against it. The artifact directory is removed unconditionally; a
// failing retry is swallowed because the caller continues without an MRZ
// either way.
func (o *Orchestrator) retryCroppedBand(ctx context.Context, imagePath string, logger *slog.Logger) *mrz.Record {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		logger.Debug("mrz fallback skipped", "path", imagePath, "error", err)
		return nil
	}
	cropped, err := imaging.CropToPNG(data, mrzBand)
	if err != nil {
		logger.Debug("mrz band crop failed", "path", imagePath, "error", err)
		return nil
	}

	tmpDir, err := os.MkdirTemp("", "passport-mrz-*")
	if err != nil {
		logger.Debug("mrz fallback temp dir failed", "error", err)
		return nil
	}
	defer os.RemoveAll(tmpDir)

	cropPath := filepath.Join(tmpDir, "mrz_band.png")
	if err := os.WriteFile(cropPath, cropped, 0o600); err != nil {
		logger.Debug("mrz band write failed", "error", err)
		return nil
	}

	rec, err := o.reader.Read(ctx, cropPath)
	if err != nil {
		logger.Debug("mrz fallback read failed", "path", imagePath, "error", err)
		return nil
	}
	if rec != nil {
		logger.Info("mrz recovered from cropped band", "path", imagePath)
	}
	return rec
}
