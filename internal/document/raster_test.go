package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"AutoPublisher/internal/clock"
	"AutoPublisher/internal/domain"
)

func newTestRasterizer(runner *fakeRunner) *Rasterizer {
	now := time.Date(2024, time.February, 5, 9, 30, 0, 0, time.UTC)
	return NewRasterizer(RasterizerConfig{
		Soffice:     "soffice",
		ImageMagick: "convert",
		ImageFormat: "png",
	}, runner, clock.NewFixed(now), nil)
}

// pagesEffect emulates soffice writing a pdf and ImageMagick writing pages.
func pagesEffect(t *testing.T, pages int) func(string, []string) (domain.ToolOutput, error) {
	return func(name string, args []string) (domain.ToolOutput, error) {
		switch name {
		case "soffice":
			src := lastArg(args)
			touch(t, strings.TrimSuffix(src, ".docx")+".pdf", 10)
		case "convert":
			pattern := lastArg(args)
			for i := 0; i < pages; i++ {
				touch(t, fmt.Sprintf(pattern, i), 10)
			}
		}
		return domain.ToolOutput{}, nil
	}
}

func TestRasterizeReturnsSortedPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "Расписание.docx"), scheduleXML)

	runner := &fakeRunner{effect: pagesEffect(t, 12)}
	artifact, err := newTestRasterizer(runner).Rasterize(t.Context(), dir)
	require.NoError(t, err)

	require.Len(t, artifact.Pages, 12)
	require.True(t, slices.IsSorted(artifact.Pages))
	require.Equal(t, "rasp_2024-02-05-09-30-00-000.png", filepath.Base(artifact.Pages[0]))
	require.Equal(t, "rasp_2024-02-05-09-30-00-011.png", filepath.Base(artifact.Pages[11]))

	require.Len(t, runner.calls, 2)
	require.Equal(t, []string{"--headless", "--convert-to", "pdf", "--outdir", dir, filepath.Join(dir, FormattedDocx)}, runner.calls[0].args)
	require.Equal(t, "-density", runner.calls[1].args[1])
}

func TestRasterizeRejectsTwoDocx(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "a.docx"), scheduleXML)
	writeDocx(t, filepath.Join(dir, "b.docx"), scheduleXML)

	runner := &fakeRunner{}
	_, err := newTestRasterizer(runner).Rasterize(t.Context(), dir)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindPrepare, kind)
	require.Empty(t, runner.calls)
}

func TestRasterizeRejectsStrayImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "a.docx"), scheduleXML)
	touch(t, filepath.Join(dir, "photo.JPG"), 10)

	_, err := newTestRasterizer(&fakeRunner{}).Rasterize(t.Context(), dir)
	kind, ok := domain.KindOf(err)
	require.True(t, ok)
	require.Equal(t, domain.KindPrepare, kind)
	require.Contains(t, err.Error(), "photo.JPG")
}

func TestRasterizeFailsWhenPdfMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "a.docx"), scheduleXML)

	runner := &fakeRunner{}
	_, err := newTestRasterizer(runner).Rasterize(t.Context(), dir)
	require.ErrorIs(t, err, domain.ErrNotFound)
	kind, _ := domain.KindOf(err)
	require.Equal(t, domain.KindPrepare, kind)
	require.Len(t, runner.calls, 1)
}

func TestRasterizeToolFailureIsPrepareError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDocx(t, filepath.Join(dir, "a.docx"), scheduleXML)

	runner := &fakeRunner{effect: func(string, []string) (domain.ToolOutput, error) {
		return domain.ToolOutput{ExitCode: 1}, errors.New("soffice crashed")
	}}
	_, err := newTestRasterizer(runner).Rasterize(t.Context(), dir)
	require.ErrorContains(t, err, "soffice crashed")
	kind, _ := domain.KindOf(err)
	require.Equal(t, domain.KindPrepare, kind)
}

func TestRasterizeRequiresDocx(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "note.txt"), []byte("x"), 0o644))

	_, err := newTestRasterizer(&fakeRunner{}).Rasterize(t.Context(), dir)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
