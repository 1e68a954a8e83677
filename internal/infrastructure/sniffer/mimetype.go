// Package sniffer detects image types from file content.
package sniffer

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

type allowed struct {
	mime string
	kind string
	ext  string
}

// supported lists the banner image codecs the site accepts.
var supported = []allowed{
	{mime: "image/jpeg", kind: "JPEG", ext: ".jpg"},
	{mime: "image/png", kind: "PNG", ext: ".png"},
}

// SupportedKinds returns the names of the supported codecs for operator messages.
func SupportedKinds() []string {
	kinds := make([]string, len(supported))
	for i, a := range supported {
		kinds[i] = a.kind
	}
	return kinds
}

// Mimetype sniffs magic bytes with gabriel-vasile/mimetype.
type Mimetype struct{}

var _ ports.ImageSniffer = Mimetype{}

func (Mimetype) Sniff(path string) (string, string, string, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "", "", "", fmt.Errorf("detect type of %s: %w", path, err)
	}
	for _, a := range supported {
		if mt.Is(a.mime) {
			return a.kind, a.ext, mt.String(), nil
		}
	}
	return "", mt.Extension(), mt.String(), fmt.Errorf("%s: %w", mt.String(), domain.ErrUnsupportedImage)
}
