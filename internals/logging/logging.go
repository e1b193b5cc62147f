package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"

	"github.com/Oudwins/scout/internals/assert"
	"github.com/Oudwins/scout/internals/conf"
)

// Init installs the process-wide logger: tinted output on stdout plus an
// append-only log file under the data dir. The returned file is closed by the
// caller at shutdown.
func Init(config *conf.Config) (*slog.Logger, *os.File) {
	logPath := filepath.Join(config.Data.Dir, "log.txt")
	err := os.MkdirAll(filepath.Dir(logPath), 0o755)
	assert.AssertNil(err, "[Scout] Failed to initialize log directory")

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	assert.AssertNil(err, "[Scout] Failed to open log file")

	logWriter := io.MultiWriter(os.Stdout, logFile)
	handler := tint.NewHandler(logWriter, &tint.Options{
		Level:   slog.LevelInfo,
		NoColor: !isatty.IsTerminal(os.Stdout.Fd()),
	})
	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger, logFile
}
