package document

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// WideSide is the default length of the longer image side after resizing.
const WideSide = 1024

// ResizedSize scales (width, height) so the longer side equals target,
// preserving the aspect ratio.
func ResizedSize(width, height, target int) (int, int) {
	if width <= 0 || height <= 0 || target <= 0 {
		return 0, 0
	}
	wide := max(width, height)
	w := int(float64(width)*float64(target)/float64(wide) + 0.5)
	h := int(float64(height)*float64(target)/float64(wide) + 0.5)
	return max(w, 1), max(h, 1)
}

// ImageSize reads the pixel dimensions from the image header.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Resizer shrinks images with ImageMagick.
type Resizer struct {
	runner      ports.ToolRunner
	imageMagick string
}

func NewResizer(runner ports.ToolRunner, imageMagick string) *Resizer {
	return &Resizer{runner: runner, imageMagick: imageMagick}
}

// ResizeToWideSide writes src scaled to target pixels on its longer side into dst.
func (r *Resizer) ResizeToWideSide(ctx context.Context, src, dst string, target int) error {
	width, height, err := ImageSize(src)
	if err != nil {
		return domain.TransformError("resize", err)
	}
	newWidth, _ := ResizedSize(width, height, target)

	if _, err := r.runner.Run(ctx, "", r.imageMagick,
		src,
		"-resize", strconv.Itoa(newWidth),
		"-quality", "100",
		dst,
	); err != nil {
		return domain.TransformError("resize", err)
	}
	if !exists(dst) {
		return domain.TransformError("resize", fmt.Errorf("%s: %w", dst, domain.ErrNotFound))
	}
	return nil
}
