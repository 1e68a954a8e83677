package publisher

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FilesPath is where the site serves uploaded files from.
const FilesPath = "/sites/default/files/"

const raspImageTemplate = `<p><img src="%s%s" alt="" width="849" height="1200" /></p>`

const mainpageTemplate = "<!-- MAINPAGE JPEG -->\n" +
	"<!-- START DATE: %s, END DATE: %s -->\n" +
	"<h2><center><img src=\"%s%s\" alt=\"\" width=\"600\" /></center></h2>\n" +
	"<!-- END OF MAINPAGE JPEG -->\n\n"

// RaspHTML renders schedule pages as one image paragraph each, in order.
func RaspHTML(images []string) string {
	var b strings.Builder
	for _, img := range images {
		fmt.Fprintf(&b, raspImageTemplate, FilesPath, filepath.Base(img))
	}
	return b.String()
}

// BannerHTML renders the mainpage banner block with its validity window.
func BannerHTML(image string, start, end time.Time) string {
	return fmt.Sprintf(mainpageTemplate, start.Format(time.DateOnly), end.Format(time.DateOnly), FilesPath, filepath.Base(image))
}
