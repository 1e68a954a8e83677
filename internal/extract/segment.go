package extract

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/sentences"
)

const defaultTitle = "Новость"

// Segment splits off the first line as the title and cuts the rest into
// sentences. Text without a newline yields an empty title.
func Segment(text string) (string, []string) {
	title, rest, found := strings.Cut(text, "\n")
	if !found {
		title, rest = "", text
	}
	rest = strings.ReplaceAll(rest, "\n", " ")

	var out []string
	iter := sentences.FromString(rest)
	for iter.Next() {
		if s := strings.TrimSpace(iter.Value()); s != "" {
			out = append(out, s)
		}
	}
	return strings.TrimSpace(title), out
}

// TitleFromSubject substitutes the mail subject for an empty title and
// strips forwarding prefixes.
func TitleFromSubject(title, subject string) string {
	if title == "" {
		title = strings.TrimSpace(subject)
	}
	for {
		lower := strings.ToLower(title)
		if !strings.HasPrefix(lower, "fwd:") {
			break
		}
		title = strings.TrimSpace(title[len("fwd:"):])
	}
	if title == "" {
		return defaultTitle
	}
	return title
}
