package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"

	"AutoPublisher/internal/domain"
)

const (
	// WordTmpDir is where a schedule docx is unpacked for patching.
	WordTmpDir = "word_tmp"
	// FormattedDocx is the repacked schedule document.
	FormattedDocx = "tmp_new_rasp.docx"
	// DocumentXML is the main part of a docx package.
	DocumentXML = "word/document.xml"

	OldFont = "Izhitsa"
	NewFont = "Times New Roman"
)

// Unpack extracts a docx package into dir, which must not exist yet.
func Unpack(docx, dir string) error {
	if exists(dir) {
		return domain.TransformError("unpack", fmt.Errorf("folder %s: %w", dir, domain.ErrAlreadyExists))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.TransformError("unpack", err)
	}
	if err := extractZip(docx, dir, false); err != nil {
		return domain.TransformError("unpack", err)
	}
	return nil
}

// PatchFonts replaces every occurrence of oldFont in the XML part. The font
// must be present, so a second application fails with domain.ErrNotFound.
func PatchFonts(xmlPath, oldFont, newFont string) error {
	raw, err := os.ReadFile(xmlPath)
	if err != nil {
		return domain.TransformError("patch fonts", err)
	}
	if !bytes.Contains(raw, []byte(oldFont)) {
		return domain.TransformError("patch fonts", fmt.Errorf("font %q: %w", oldFont, domain.ErrNotFound))
	}
	raw = bytes.ReplaceAll(raw, []byte(oldFont), []byte(newFont))
	if err := os.WriteFile(xmlPath, raw, 0o644); err != nil {
		return domain.TransformError("patch fonts", err)
	}
	return nil
}

// DisableRowSplitting marks every row of the body tables as "cannot split
// across pages". Rows without a w:trPr container get one.
func DisableRowSplitting(xmlPath string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(xmlPath); err != nil {
		return domain.TransformError("disable row splitting", err)
	}
	root := doc.Root()
	if root == nil {
		return domain.TransformError("disable row splitting", errors.New("empty document"))
	}
	ns := root.NamespaceURI()

	body := childNS(root, ns, "body")
	if body == nil {
		return domain.TransformError("disable row splitting", fmt.Errorf("body: %w", domain.ErrNotFound))
	}
	tables := childrenNS(body, ns, "tbl")
	if len(tables) == 0 {
		return domain.TransformError("disable row splitting", fmt.Errorf("table: %w", domain.ErrNotFound))
	}

	for _, tbl := range tables {
		for _, tr := range childrenNS(tbl, ns, "tr") {
			markCantSplit(tr, ns)
		}
	}

	if err := doc.WriteToFile(xmlPath); err != nil {
		return domain.TransformError("disable row splitting", err)
	}
	return nil
}

func markCantSplit(tr *etree.Element, ns string) {
	trPr := childNS(tr, ns, "trPr")
	if trPr == nil {
		trPr = etree.NewElement(qualified(tr.Space, "trPr"))
		index := 0
		if ex := childNS(tr, ns, "tblPrEx"); ex != nil {
			index = ex.Index() + 1
		}
		tr.InsertChildAt(index, trPr)
	}
	if childNS(trPr, ns, "cantSplit") != nil {
		return
	}
	cantSplit := trPr.CreateElement(qualified(tr.Space, "cantSplit"))
	cantSplit.CreateAttr(qualified(tr.Space, "val"), "true")
}

func childNS(parent *etree.Element, ns, local string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == local && child.NamespaceURI() == ns {
			return child
		}
	}
	return nil
}

func childrenNS(parent *etree.Element, ns, local string) []*etree.Element {
	var found []*etree.Element
	for _, child := range parent.ChildElements() {
		if child.Tag == local && child.NamespaceURI() == ns {
			found = append(found, child)
		}
	}
	return found
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// Repack zips dir into a new docx. The destination must not exist.
func Repack(dir, docx string) error {
	if !exists(dir) {
		return domain.TransformError("repack", fmt.Errorf("folder %s: %w", dir, domain.ErrNotFound))
	}
	if exists(docx) {
		return domain.TransformError("repack", fmt.Errorf("file %s: %w", docx, domain.ErrAlreadyExists))
	}

	out, err := os.OpenFile(docx, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.TransformError("repack", err)
	}
	zw := zip.NewWriter(out)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: filepath.ToSlash(rel), Method: zip.Deflate})
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})

	closeErr := errors.Join(zw.Close(), out.Close())
	if err := errors.Join(walkErr, closeErr); err != nil {
		return domain.TransformError("repack", err)
	}
	return nil
}

// FormatScheduleDocx patches fonts and row splitting of docx and writes the
// result as FormattedDocx inside folder.
func FormatScheduleDocx(docx, folder string) (string, error) {
	workDir := filepath.Join(folder, WordTmpDir)
	formatted := filepath.Join(folder, FormattedDocx)

	if err := Unpack(docx, workDir); err != nil {
		return "", err
	}
	xmlPath := filepath.Join(workDir, filepath.FromSlash(DocumentXML))
	if err := PatchFonts(xmlPath, OldFont, NewFont); err != nil {
		return "", err
	}
	if err := DisableRowSplitting(xmlPath); err != nil {
		return "", err
	}
	if err := Repack(workDir, formatted); err != nil {
		return "", err
	}
	if err := os.RemoveAll(workDir); err != nil {
		return "", domain.TransformError("cleanup", err)
	}
	return formatted, nil
}

// extractZip writes archive members under dir. With flat set, directory
// structure is dropped and only base names are kept.
func extractZip(archive, dir string, flat bool) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("open %s: %w", archive, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		name := filepath.FromSlash(f.Name)
		if flat {
			name = filepath.Base(name)
			if f.FileInfo().IsDir() || name == "." || name == string(filepath.Separator) {
				continue
			}
		}
		target := filepath.Join(dir, name)
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return fmt.Errorf("member %s escapes %s", f.Name, dir)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := writeMember(f, target); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func writeMember(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
