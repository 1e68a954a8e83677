package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/domain"
)

const newsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Открытие парка</w:t></w:r></w:p>
    <w:p/>
    <w:p><w:r><w:t xml:space="preserve">В субботу </w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>открылся</w:t></w:r><w:r><w:t xml:space="preserve"> парк.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Пришли жители &amp; гости.</w:t></w:r></w:p>
    <w:p><w:r><w:rPr><w:i/><w:b w:val="0"/></w:rPr><w:t>Ждём всех.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestDocxToHTML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news.docx")
	writeDocx(t, path, newsXML)

	out, err := DocxToHTML(path)
	require.NoError(t, err)
	require.Equal(t,
		"<p>Открытие парка</p>"+
			"<p>В субботу <strong>открылся</strong> парк.</p>"+
			"<p>Пришли жители &amp; гости.</p>"+
			"<p><em>Ждём всех.</em></p>", out)
}

func TestDocxToHTMLMissingPart(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = DocxToHTML(path)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNewsFromDocx(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news.docx")
	writeDocx(t, path, newsXML)

	title, body, err := NewsFromDocx(path)
	require.NoError(t, err)
	require.Equal(t, "Открытие парка", title)
	require.Equal(t, 3, strings.Count(body, ParagraphStart))
	require.Equal(t, 3, strings.Count(body, ParagraphEnd))
	require.Contains(t, body, ParagraphStart+"В субботу <strong>открылся</strong> парк."+ParagraphEnd)
	require.NotContains(t, body, "Открытие парка")
}

func TestNewsParagraphsReturnsRenderError(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<p>Заголовок</p><p>первый</p><p>второй</p>"))
	require.NoError(t, err)

	broken := errors.New("render failed")
	calls := 0
	_, _, err = newsParagraphs(doc.Find("p"), func(*goquery.Selection) (string, error) {
		calls++
		return "", broken
	})
	require.ErrorIs(t, err, broken)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindPrepare, kind)
	require.Equal(t, 1, calls)
}

func TestTextFromDocx(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "news.docx")
	writeDocx(t, path, newsXML)

	text, err := TextFromDocx(path)
	require.NoError(t, err)
	require.Equal(t, "Открытие парка\nВ субботу открылся парк.\nПришли жители & гости.\nЖдём всех.", text)
}

func TestLinesFromHTML(t *testing.T) {
	t.Parallel()

	html := `<html><head><style>p{}</style></head><body>
	<div>Первый
	  абзац<br>продолжение</div>
	<p>Второй <b>абзац</b></p><br><br>
	<blockquote><p>&gt; цитата</p></blockquote>
	</body></html>`

	require.Equal(t, []string{"Первый абзац продолжение", "Второй абзац", "> цитата"}, Lines(html, true))
}

func TestLinesFromPlainText(t *testing.T) {
	t.Parallel()

	plain := "Первая строка\r\nтого же абзаца\r\n\r\n\r\nВторой абзац\n\n   \n"
	require.Equal(t, []string{"Первая строка того же абзаца", "Второй абзац"}, Lines(plain, false))
}
