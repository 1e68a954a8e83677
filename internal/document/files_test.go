package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesWithExtMatchesCaseInsensitively(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.jpg", "c.jpeg", "d.png", "e.docx"} {
		touch(t, filepath.Join(dir, name), 1)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.jpg"), 0o755))

	files, err := FilesWithExt(dir, "jpg", ".JPEG")
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.JPG"),
		filepath.Join(dir, "c.jpeg"),
	}, files)
}

func TestFileSizeMB(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "x.bin")
	touch(t, path, 1024*1024+512*1024)

	size, err := FileSizeMB(path)
	require.NoError(t, err)
	require.InDelta(t, 1.5, size, 1e-9)

	empty := filepath.Join(dir, "empty.bin")
	touch(t, empty, 0)
	_, err = FileSizeMB(empty)
	require.Error(t, err)
}
