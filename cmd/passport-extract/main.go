package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/extract"
	"github.com/docufield/passport-extract/internal/mrz"
	"github.com/docufield/passport-extract/internal/ocr"
)

// emit prints the one JSON document this command writes to stdout. Logs go
// to stderr so stdout stays machine-readable.
func emit(res *extract.Result) {
	doc, err := res.JSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(doc))
}

func main() {
	var (
		mode        = flag.String("mode", "regions", "date sampling mode: regions or full")
		mrzFallback = flag.Bool("mrz-fallback", true, "retry the MRZ reader on the cropped bottom band")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		emit(extract.NewFailure("usage: passport-extract [flags] <image-path>"))
		os.Exit(1)
	}
	imagePath := flag.Arg(0)
	if _, err := os.Stat(imagePath); err != nil {
		emit(extract.NewFailure(fmt.Sprintf("cannot read image: %v", err)))
		os.Exit(1)
	}
	if *mode != "regions" && *mode != "full" {
		emit(extract.NewFailure(fmt.Sprintf("unknown mode %q, want regions or full", *mode)))
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		emit(extract.NewFailure(err.Error()))
		os.Exit(1)
	}

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Error("ocr engine unavailable", "error", err)
		emit(extract.NewFailure(err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base := ocr.Config{
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
		EngineMode:  cfg.OCR.EngineMode,
	}
	sampler := ocr.NewSampler(engine, base, logger)
	reader := mrz.NewPassportEyeReader(cfg.MRZ.Command, cfg.MRZ.Timeout, logger)
	orch := extract.NewOrchestrator(reader, sampler, extract.Options{
		RegionSampling:  *mode == "regions",
		MRZCropFallback: *mrzFallback,
	}, logger)

	emit(orch.Extract(ctx, imagePath))
}

// buildEngine wires the configured OCR engine kind.
func buildEngine(cfg *common.Config, logger *slog.Logger) (ocr.Engine, error) {
	switch cfg.OCR.Engine {
	case common.OCREngineNative:
		return ocr.NewNativeEngine(), nil
	case common.OCREngineExec:
		return ocr.NewExecEngine(cfg.OCR.Tesseract, logger), nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR",
			fmt.Sprintf("unknown OCR engine %q", cfg.OCR.Engine), common.ErrInvalidInput)
	}
}
