package extract

import "strings"

// The site expects this exact inline style on every news paragraph.
const (
	ParagraphStart = `<p style="text-align: justify; text-indent: 20px;"><span style="font-size: 14pt; line-height: 115%; font-family: 'Times New Roman', 'serif'; color: #000000;">`
	ParagraphEnd   = `</span></p>`
)

// Render wraps each sentence in the paragraph template, keeping order.
func Render(sentences []string) string {
	paragraphs := make([]string, len(sentences))
	for i, s := range sentences {
		paragraphs[i] = ParagraphStart + s + ParagraphEnd
	}
	return strings.Join(paragraphs, "\n")
}

// FormatForReview shows sentences as <s1>\n<s2> so the operator can edit
// and send them back.
func FormatForReview(sentences []string) string {
	return "<" + strings.Join(sentences, ">\n<") + ">"
}

// ParseEdited reads the FormatForReview layout back into sentences.
func ParseEdited(text string) []string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	text = strings.TrimPrefix(text, "<")
	text = strings.TrimSuffix(text, ">")

	var out []string
	for _, part := range strings.Split(text, ">\n<") {
		if s := strings.TrimSpace(strings.ReplaceAll(part, "\n", " ")); s != "" {
			out = append(out, s)
		}
	}
	return out
}
