package extract

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestValidateImage_ValidPNG(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "invoice.png")
	assert.NoError(t, ValidateImage(path))
}

func TestValidateImage_UppercaseExtension(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "invoice.PNG")
	assert.NoError(t, ValidateImage(path))
}

func TestValidateImage_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	err := ValidateImage(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestValidateImage_CorruptContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a jpeg"), 0o644))

	assert.Error(t, ValidateImage(path))
}

func TestValidateImage_MissingFile(t *testing.T) {
	assert.Error(t, ValidateImage(filepath.Join(t.TempDir(), "absent.png")))
}
