package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/docufield/passport-extract/internal/common"
	"github.com/docufield/passport-extract/internal/export"
	"github.com/docufield/passport-extract/internal/extract"
	"github.com/docufield/passport-extract/internal/mrz"
	"github.com/docufield/passport-extract/internal/ocr"
	"github.com/docufield/passport-extract/internal/pipeline"
	repo "github.com/docufield/passport-extract/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem       = flag.Bool("inmem", false, "use an in-memory SQLite history store")
		dir         = flag.String("dir", "", "directory of passport scans to process (required)")
		out         = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		dbFlag      = flag.String("db", "", "history store DSN (overrides DB_URL)")
		fromStr     = flag.String("from", "", "from date YYYY-MM-DD")
		toStr       = flag.String("to", "", "to date YYYY-MM-DD")
		mode        = flag.String("mode", "regions", "date sampling mode: regions or full")
		mrzFallback = flag.Bool("mrz-fallback", true, "retry the MRZ reader on the cropped bottom band")
		workers     = flag.Int("workers", 4, "number of files to extract concurrently")
		watch       = flag.Bool("watch", false, "keep watching the directory for new scans after the batch")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *mode != "regions" && *mode != "full" {
		printError("Error: --mode must be regions or full\n")
		os.Exit(1)
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "passports.xlsx")
	}

	// Parse date filters
	var from, to *time.Time
	if *fromStr != "" {
		if parsed, err := time.Parse("2006-01-02", *fromStr); err != nil {
			printError("Error: invalid --from date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			from = &parsed
		}
	}
	if *toStr != "" {
		if parsed, err := time.Parse("2006-01-02", *toStr); err != nil {
			printError("Error: invalid --to date format, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		} else {
			to = &parsed
		}
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Resolve the history store DSN
	dsn := cfg.Database.DSN
	if *dbFlag != "" {
		dsn = *dbFlag
	}
	if *inmem {
		dsn = ":memory:"
	}
	if dsn == "" {
		dsn = "passports.db"
	}

	db, err := repo.Open(ctx, repo.Config{
		DSN:             dsn,
		MaxConns:        cfg.Database.MaxConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	if err := repo.Migrate(ctx, db, logger); err != nil {
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(db, logger)

	// Wire the extraction stack
	engine, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Error("ocr engine unavailable", "error", err)
		os.Exit(1)
	}
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

	batch := pipeline.NewBatch(orch, jobsRepo, *mode, logger,
		pipeline.WithWorkers(*workers),
		pipeline.WithFileTimeout(3*time.Minute))

	logger.Info("starting batch", "dir", *dir, "mode", *mode)
	_, stats, err := batch.Run(ctx, *dir, true)
	if err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}

	// Export to XLSX
	logger.Info("exporting to XLSX", "output", *out)
	exportService := export.NewService(jobsRepo, logger)

	writeWorkbook := func(ctx context.Context) {
		xlsxBytes, err := exportService.ExportJobsXLSX(ctx, from, to)
		if err != nil {
			logger.Error("failed to export job history", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
	}
	writeWorkbook(ctx)

	// Log summary
	logger.Info("batch processing complete",
		"files_matched", stats.Matched,
		"recognized", stats.Succeeded,
		"no_mrz", stats.NoMRZ,
		"failures", stats.Failed,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files matched: %d\n", stats.Matched)
	fmt.Printf("- Passports recognized: %d\n", stats.Succeeded)
	fmt.Printf("- No MRZ found: %d\n", stats.NoMRZ)
	fmt.Printf("- Failures: %d\n", stats.Failed)
	fmt.Printf("- Output: %s\n", *out)

	if *watch {
		fmt.Printf("Watching %s for new scans (ctrl-c to stop)...\n", *dir)
		if err := batch.Watch(ctx, *dir, true, 2*time.Second); err != nil {
			logger.Error("watch failed", "error", err)
			os.Exit(1)
		}
		stop()
		// Scans that landed while watching go into a refreshed workbook.
		writeWorkbook(context.Background())
		fmt.Printf("Watch stopped. Workbook refreshed: %s\n", *out)
	}
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
