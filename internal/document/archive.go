package document

import (
	"context"
	"fmt"
	"os"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

// UnzipFlat extracts every file of archive directly into folder, dropping
// the archive's directory structure.
func UnzipFlat(archive, folder string) error {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return domain.PrepareError("unzip", err)
	}
	if err := extractZip(archive, folder, true); err != nil {
		return domain.PrepareError("unzip", err)
	}
	return nil
}

// Unrar extracts a rar archive with the unrar tool and returns a report of
// its output. A failing unrar is reported, not returned as an error.
func Unrar(ctx context.Context, runner ports.ToolRunner, unrarBin, archive, folder string) string {
	out, err := runner.Run(ctx, folder, unrarBin, "x", archive, folder+string(os.PathSeparator))
	if err != nil && out.Stderr == "" {
		out.Stderr = err.Error()
	}
	return fmt.Sprintf("Output: \n%s\nErrors: \n%s\nReturn Code: %d", out.Stdout, out.Stderr, out.ExitCode)
}
