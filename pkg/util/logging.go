package util

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// errors and above go to stderr and errors.log
	highPriority = zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	// everything below errors goes to stdout and standard.log
	lowPriority = zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl < zapcore.ErrorLevel
	})
)

// DefaultLogger initializing default logger
// NOTE: if logDir is empty then everything is written to stdout & stderr,
// otherwise into JSON log files, mirroring to the console only in debug mode
func DefaultLogger(debugMode bool, logDir string) (*zap.Logger, error) {
	logDir = strings.TrimSpace(logDir)

	consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	if logDir == "" {
		core := zapcore.NewTee(
			zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), highPriority),
			zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), lowPriority),
		)

		return zap.New(core), nil
	}

	if err := CreateDirectoryIfNotExists(logDir, 0755); err != nil {
		return nil, err
	}

	errSink, err := fileSink(filepath.Join(logDir, "errors.log"))
	if err != nil {
		return nil, err
	}

	stdSink, err := fileSink(filepath.Join(logDir, "standard.log"))
	if err != nil {
		return nil, err
	}

	fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	cores := []zapcore.Core{
		zapcore.NewCore(fileEncoder, errSink, highPriority),
		zapcore.NewCore(fileEncoder, stdSink, lowPriority),
	}

	if debugMode {
		cores = append(
			cores,
			zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stderr)), highPriority),
			zapcore.NewCore(consoleEncoder, zapcore.Lock(zapcore.AddSync(os.Stdout)), lowPriority),
		)
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func fileSink(path string) (zapcore.WriteSyncer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log file %s", path)
	}

	return zapcore.Lock(zapcore.AddSync(f)), nil
}

// DevelopmentLogger returns a development logger or panics,
// used as a fallback by every component that has no logger set
func DevelopmentLogger(name string) *zap.Logger {
	l, err := zap.NewDevelopment()
	if err != nil {
		panic(errors.Wrapf(err, "failed to initialize %s logger", name))
	}

	return l
}
