// Package nativelog builds the process zap logger: console lines on stdout
// and the same lines appended to one file per day.
package nativelog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogDir = "BDP_LOG_DIR"

	filePerm = 0o644
	dirPerm  = 0o755
)

// ResolveDir picks the log directory: explicit value, then $BDP_LOG_DIR, then ./logs.
func ResolveDir(explicit string) string {
	for _, dir := range []string{explicit, os.Getenv(EnvLogDir)} {
		if dir = strings.TrimSpace(dir); dir != "" {
			return dir
		}
	}
	return filepath.Join(".", "logs")
}

func DailyFilename(day time.Time) string {
	return "bdp-api-helper_" + day.Format("2006-01-02") + ".log"
}

// Writer keeps today's file open and switches files when the date changes.
type Writer struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File
	now  func() time.Time
}

func NewWriter(dir string) (*Writer, error) {
	dir = ResolveDir(dir)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, now: time.Now}, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotate(); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

func (w *Writer) rotate() error {
	now := w.now()
	day := now.Format("2006-01-02")
	if w.file != nil && day == w.day {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(w.dir, DailyFilename(now)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	w.file, w.day = f, day
	return nil
}

func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// NewZapLogger tees a console encoder to stdout and the daily file. debug
// lowers the level to Debug so skipped meta writes show up.
func NewZapLogger(dir string, debug bool) (*zap.Logger, error) {
	writer, err := NewWriter(dir)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoder := zapcore.NewConsoleEncoder(encCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(encoder, writer, level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
