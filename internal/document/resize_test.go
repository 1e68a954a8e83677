package document

import (
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/domain"
)

func TestResizedSizePreservesAspect(t *testing.T) {
	t.Parallel()

	for _, width := range []int{1, 7, 640, 1023, 1024, 3000, 4032} {
		for _, height := range []int{1, 9, 480, 1024, 2250, 3024} {
			for _, target := range []int{100, 1024} {
				w2, h2 := ResizedSize(width, height, target)
				require.Equal(t, target, max(w2, h2), "size %dx%d -> %d", width, height, target)

				// each side is within one pixel of the exact scaled value
				scale := float64(target) / float64(max(width, height))
				require.InDelta(t, float64(width)*scale, float64(w2), 1, "width %dx%d -> %d", width, height, target)
				require.InDelta(t, float64(height)*scale, float64(h2), 1, "height %dx%d -> %d", width, height, target)
			}
		}
	}
}

func TestResizedSizeRejectsEmpty(t *testing.T) {
	t.Parallel()

	w, h := ResizedSize(0, 100, 1024)
	require.Zero(t, w)
	require.Zero(t, h)
}

func writeJPEG(t *testing.T, path string, width, height int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, image.NewRGBA(image.Rect(0, 0, width, height)), nil))
	require.NoError(t, f.Close())
}

func TestResizeToWideSideCallsImageMagick(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "big.jpg")
	dst := filepath.Join(dir, "small.jpg")
	writeJPEG(t, src, 300, 200)

	runner := &fakeRunner{effect: func(_ string, args []string) (domain.ToolOutput, error) {
		touch(t, lastArg(args), 1)
		return domain.ToolOutput{}, nil
	}}
	require.NoError(t, NewResizer(runner, "convert").ResizeToWideSide(t.Context(), src, dst, 150))

	require.Len(t, runner.calls, 1)
	require.Equal(t, "convert", runner.calls[0].name)
	require.Equal(t, []string{src, "-resize", "150", "-quality", "100", dst}, runner.calls[0].args)
}

func TestResizeToWideSideRequiresOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "big.jpg")
	writeJPEG(t, src, 200, 300)

	err := NewResizer(&fakeRunner{}, "convert").ResizeToWideSide(t.Context(), src, filepath.Join(dir, "out.jpg"), 150)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
