package sniffer

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/domain"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sample() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestSniffSupported(t *testing.T) {
	t.Parallel()

	var jpg, pngBuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, sample(), nil))
	require.NoError(t, png.Encode(&pngBuf, sample()))

	kind, ext, desc, err := Mimetype{}.Sniff(writeFile(t, "photo.download", jpg.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "JPEG", kind)
	require.Equal(t, ".jpg", ext)
	require.Equal(t, "image/jpeg", desc)

	kind, ext, _, err = Mimetype{}.Sniff(writeFile(t, "photo.jpg", pngBuf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "PNG", kind)
	require.Equal(t, ".png", ext)
}

func TestSniffRejectsOtherContent(t *testing.T) {
	t.Parallel()

	_, _, desc, err := Mimetype{}.Sniff(writeFile(t, "doc.png", []byte("%PDF-1.4\n%âãÏÓ\n")))
	require.ErrorIs(t, err, domain.ErrUnsupportedImage)
	require.Equal(t, "application/pdf", desc)

	_, _, _, err = Mimetype{}.Sniff(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrUnsupportedImage)
}

func TestSupportedKinds(t *testing.T) {
	t.Parallel()
	require.Equal(t, []string{"JPEG", "PNG"}, SupportedKinds())
}
