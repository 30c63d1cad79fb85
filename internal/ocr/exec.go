package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// ExecEngine shells out to the tesseract binary. It exists for installs
// without the C development headers the native engine links against.
type ExecEngine struct {
	tesseract string
	runner    Runner
	logger    *slog.Logger
}

func NewExecEngine(tesseract string, logger *slog.Logger) *ExecEngine {
	if tesseract == "" {
		tesseract = "tesseract"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecEngine{tesseract: tesseract, runner: execRunner{}, logger: logger}
}

func (e *ExecEngine) Recognize(ctx context.Context, image []byte, cfg Config) (string, error) {
	tmpDir, err := os.MkdirTemp("", "passport-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "sample.png")
	if err := os.WriteFile(imgPath, image, 0o600); err != nil {
		return "", fmt.Errorf("write temp image: %w", err)
	}

	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	// tesseract <file> stdout -l <lang> [--oem N] [--psm N] [-c whitelist]
	args := []string{imgPath, "stdout", "-l", lang}
	if cfg.EngineMode > 0 {
		args = append(args, "--oem", strconv.Itoa(cfg.EngineMode))
	}
	if cfg.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(cfg.PageSegMode))
	}
	if cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", cfg.TessdataDir)
	}
	if cfg.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+cfg.Whitelist)
	}

	out, errb, err := e.runner.Run(ctx, e.tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
