package document

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/domain"
)

const scheduleXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:tbl>
      <w:tblPr><w:tblW w:w="0" w:type="auto"/></w:tblPr>
      <w:tr>
        <w:trPr><w:trHeight w:val="300"/></w:trPr>
        <w:tc><w:p><w:r><w:rPr><w:rFonts w:ascii="Izhitsa" w:hAnsi="Izhitsa"/></w:rPr><w:t>Понедельник</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Вторник</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tblPrEx><w:tblBorders/></w:tblPrEx>
        <w:tc><w:p><w:r><w:t>Среда</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
    <w:sectPr/>
  </w:body>
</w:document>`

func writeDocx(t *testing.T, path, documentXML string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"word/document.xml":   documentXML,
	}
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func touch(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner records calls and lets a test emulate tool side effects.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	effect func(name string, args []string) (domain.ToolOutput, error)
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) (domain.ToolOutput, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	f.mu.Unlock()
	if f.effect == nil {
		return domain.ToolOutput{}, nil
	}
	return f.effect(name, args)
}

func lastArg(args []string) string {
	return args[len(args)-1]
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func readPart(t *testing.T, docx, part string) string {
	t.Helper()
	zr, err := zip.OpenReader(docx)
	require.NoError(t, err)
	defer zr.Close()
	for _, f := range zr.File {
		if f.Name != part {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		buf := make([]byte, f.UncompressedSize64)
		_, err = io.ReadFull(rc, buf)
		require.NoError(t, err)
		return string(buf)
	}
	t.Fatalf("part %s not found in %s", part, filepath.Base(docx))
	return ""
}
