package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// NativeEngine runs OCR through the linked tesseract library. A fresh client
// is created per invocation so configurations never leak between calls.
type NativeEngine struct{}

func NewNativeEngine() *NativeEngine {
	return &NativeEngine{}
}

func (e *NativeEngine) Recognize(ctx context.Context, image []byte, cfg Config) (string, error) {
	// gosseract calls cannot be cancelled mid-flight; honor an already
	// cancelled context before starting.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if cfg.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PageSegMode)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if cfg.Whitelist != "" {
		if err := client.SetWhitelist(cfg.Whitelist); err != nil {
			return "", fmt.Errorf("set whitelist: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
