package logger

import (
	"fmt"
	"log"
	"log/slog"
	"os"
)

// New returns a *log.Logger for libraries that cannot take a slog.Logger.
// Lines go to base at warn level tagged with component; with a nil base
// they are printed to stdout with a component prefix.
func New(component string, base *slog.Logger) *log.Logger {
	if base == nil {
		prefix := fmt.Sprintf("[%s] ", component)
		return log.New(os.Stdout, prefix, log.LstdFlags|log.Lshortfile)
	}
	return slog.NewLogLogger(base.With("library", component).Handler(), slog.LevelWarn)
}
