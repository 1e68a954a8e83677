package extract

import (
	"errors"
	"strings"

	"AutoPublisher/internal/domain"
)

const endOfForwarded = "Конец пересылаемого сообщения"

// ForwardedText pulls the original message text out of a forwarded mail.
// Only messages whose subject carries a forwarding marker are accepted.
func ForwardedText(subject, body string, isHTML bool) (string, error) {
	if !strings.Contains(strings.ToLower(subject), "fwd") {
		return "", domain.PrepareError("forwarded text", errors.New("can't find text in non-forwarded messages"))
	}

	text := strings.Join(forwardedBodyLines(Lines(body, isHTML)), "\n")
	if strings.HasPrefix(text, ">") {
		text = strings.TrimPrefix(strings.TrimPrefix(text, ">"), " ")
	}
	return text, nil
}

// forwardedBodyLines collects lines after the first line with an address
// until a quote marker or the end-of-forward marker.
func forwardedBodyLines(lines []string) []string {
	var (
		inBody bool
		body   []string
	)
	for _, line := range lines {
		if strings.HasPrefix(line, `\`) || strings.Contains(line, endOfForwarded) {
			inBody = false
		}
		if inBody {
			body = append(body, line)
		}
		if strings.Contains(line, "@") {
			inBody = true
		}
	}
	return body
}
