package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	spaces         = regexp.MustCompile(`[ \t\r\f\v]+`)
	whitespace     = regexp.MustCompile(`\s+`)
)

var blockElements = map[string]bool{
	"p": true, "div": true, "blockquote": true, "li": true, "ul": true, "ol": true,
	"table": true, "tr": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "pre": true, "hr": true, "section": true, "article": true,
}

var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
}

// Lines splits a mail body into paragraphs. Line breaks inside a paragraph
// become spaces and blank paragraphs are dropped.
func Lines(body string, isHTML bool) []string {
	text := body
	if isHTML {
		text = htmlToText(body)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []string
	for _, chunk := range paragraphBreak.Split(text, -1) {
		line := strings.TrimSpace(spaces.ReplaceAllString(strings.ReplaceAll(chunk, "\n", " "), " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// TextFromHTML returns the paragraphs of an HTML fragment joined by newlines.
func TextFromHTML(html string) string {
	return strings.Join(Lines(html, true), "\n")
}

// TextFromBody is TextFromHTML for either kind of mail body.
func TextFromBody(body string, isHTML bool) string {
	return strings.Join(Lines(body, isHTML), "\n")
}

func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	var b strings.Builder
	walkText(doc.Selection, &b)
	return b.String()
}

func walkText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			b.WriteString(whitespace.ReplaceAllString(node.Text(), " "))
		case name == "br":
			b.WriteString("\n")
		case skippedElements[name] || strings.HasPrefix(name, "#"):
		case blockElements[name]:
			b.WriteString("\n\n")
			walkText(node, b)
			b.WriteString("\n\n")
		default:
			walkText(node, b)
		}
	})
}
