package extract

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Register decoders so image.DecodeConfig can sniff every supported format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/facturaia/invoice-pipeline/constants"
)

// ValidateImage checks that a path points to a supported, decodable image.
// It must run before any model call so corrupt uploads don't burn quota.
func ValidateImage(path string) error {
	ext := filepath.Ext(path)
	if !constants.AllowedExt(ext) {
		return fmt.Errorf("unsupported image format %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	return nil
}
