package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsImageExt(t *testing.T) {
	t.Run("accepts allowed extensions in any spelling", func(t *testing.T) {
		for _, ext := range []string{".png", "png", ".JPG", "JPEG", ".TIFF", "tif", ".bmp", ".webp"} {
			assert.True(t, IsImageExt(ext), ext)
		}
	})

	t.Run("rejects everything else", func(t *testing.T) {
		for _, ext := range []string{"", ".", ".pdf", "txt", ".heic", ".png.bak"} {
			assert.False(t, IsImageExt(ext), ext)
		}
	})
}

func TestNormalizeExt(t *testing.T) {
	assert.Equal(t, "png", NormalizeExt(".PNG"))
	assert.Equal(t, "jpeg", NormalizeExt("jpeg"))
	assert.Equal(t, "", NormalizeExt("."))
}
