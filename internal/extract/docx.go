// Package extract derives news titles and sentences from Word documents
// and forwarded mail bodies, and renders sentences back into site markup.
package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/klauspost/compress/zip"

	"AutoPublisher/internal/domain"
)

const documentPart = "word/document.xml"

// DocxToHTML renders the paragraphs of a docx as <p> elements. Bold and
// italic runs become <strong> and <em>; empty paragraphs are skipped.
func DocxToHTML(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", domain.PrepareError("read docx", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != documentPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", domain.PrepareError("read docx", err)
		}
		defer rc.Close()
		out, err := paragraphsToHTML(rc)
		if err != nil {
			return "", domain.PrepareError("parse docx", err)
		}
		return out, nil
	}
	return "", domain.PrepareError("read docx", fmt.Errorf("%s: %w", documentPart, domain.ErrNotFound))
}

type runStyle struct {
	bold   bool
	italic bool
}

func paragraphsToHTML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		para       strings.Builder
		run        strings.Builder
		style      runStyle
		inPara     bool
		inRun      bool
		inRunProps bool
		inText     bool
	)

	flushRun := func() {
		text := run.String()
		run.Reset()
		if text == "" {
			return
		}
		text = html.EscapeString(text)
		if style.italic {
			text = "<em>" + text + "</em>"
		}
		if style.bold {
			text = "<strong>" + text + "</strong>"
		}
		para.WriteString(text)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				para.Reset()
			case "r":
				inRun = true
				style = runStyle{}
			case "rPr":
				inRunProps = inRun
			case "b":
				if inRunProps && !isOff(t) {
					style.bold = true
				}
			case "i":
				if inRunProps && !isOff(t) {
					style.italic = true
				}
			case "t":
				inText = true
			case "tab":
				if inRun {
					run.WriteString("\t")
				}
			case "br":
				if inRun {
					flushRun()
					para.WriteString("<br />")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					flushRun()
					if content := para.String(); strings.TrimSpace(content) != "" {
						paragraphs = append(paragraphs, "<p>"+content+"</p>")
					}
				}
				inPara = false
			case "r":
				flushRun()
				inRun = false
			case "rPr":
				inRunProps = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && inRun {
				run.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, ""), nil
}

func isOff(el xml.StartElement) bool {
	for _, a := range el.Attr {
		if a.Name.Local == "val" {
			return a.Value == "0" || a.Value == "false"
		}
	}
	return false
}

// NewsFromDocx takes the first paragraph as the title and renders the rest
// with the site paragraph template.
func NewsFromDocx(path string) (string, string, error) {
	body, err := DocxToHTML(path)
	if err != nil {
		return "", "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", "", domain.PrepareError("parse news html", err)
	}
	return newsParagraphs(doc.Find("p"), (*goquery.Selection).Html)
}

// newsParagraphs splits paragraphs into the title and the templated body.
// inner renders the markup of one paragraph.
func newsParagraphs(ps *goquery.Selection, inner func(*goquery.Selection) (string, error)) (string, string, error) {
	var (
		title      string
		paragraphs []string
		renderErr  error
	)
	ps.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if title == "" {
			title = strings.TrimSpace(p.Text())
			return true
		}
		markup, err := inner(p)
		if err != nil {
			renderErr = err
			return false
		}
		paragraphs = append(paragraphs, ParagraphStart+markup+ParagraphEnd)
		return true
	})
	if renderErr != nil {
		return "", "", domain.PrepareError("render news paragraph", renderErr)
	}
	return title, strings.Join(paragraphs, "\n"), nil
}

// TextFromDocx returns the document text, one paragraph per line.
func TextFromDocx(path string) (string, error) {
	body, err := DocxToHTML(path)
	if err != nil {
		return "", err
	}
	return TextFromHTML(body), nil
}
