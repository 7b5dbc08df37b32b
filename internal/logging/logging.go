// Package logging builds the bot's zap logger. Every entry goes to the
// console and to an append-only logs.txt; entries marked Public are also
// appended to publogs.txt, the log that operators publish.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogFile    = "logs.txt"
	PublicFile = "publogs.txt"

	publicKey = "pub"
)

type Config struct {
	// Dir holds logs.txt and publogs.txt; empty disables file logging.
	Dir     string
	Verbose bool
	// Console defaults to stderr.
	Console io.Writer
}

// Public marks an entry for the public log.
func Public() zap.Field { return zap.Bool(publicKey, true) }

// New returns a logger and a close func that syncs and closes log files.
func New(cfg Config) (*zap.Logger, func() error, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Verbose {
		level.SetLevel(zapcore.DebugLevel)
	}

	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	var consoleEnc zapcore.Encoder
	if cfg.Verbose {
		consoleEnc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		consoleEnc = zapcore.NewConsoleEncoder(productionEncoderConfig())
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEnc, zapcore.AddSync(console), level)}

	var files []*os.File
	closeAll := func() error {
		var first error
		for _, f := range files {
			if err := f.Sync(); err != nil && first == nil {
				first = err
			}
			if err := f.Close(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("log dir: %w", err)
		}
		all, err := openAppend(filepath.Join(cfg.Dir, LogFile))
		if err != nil {
			return nil, nil, err
		}
		files = append(files, all)
		pub, err := openAppend(filepath.Join(cfg.Dir, PublicFile))
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		files = append(files, pub)

		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(productionEncoderConfig()), zapcore.AddSync(all), level),
			&publicCore{Core: zapcore.NewCore(zapcore.NewConsoleEncoder(productionEncoderConfig()), zapcore.AddSync(pub), zapcore.InfoLevel)},
		)
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() error {
		_ = logger.Sync()
		return closeAll()
	}, nil
}

func productionEncoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return ec
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return f, nil
}

// publicCore forwards only entries that carry Public(), either on the
// entry itself or on the logger via With.
type publicCore struct {
	zapcore.Core
	pub bool
}

func (c *publicCore) With(fields []zapcore.Field) zapcore.Core {
	return &publicCore{Core: c.Core.With(fields), pub: c.pub || hasPublic(fields)}
}

func (c *publicCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *publicCore) Write(e zapcore.Entry, fields []zapcore.Field) error {
	if !c.pub && !hasPublic(fields) {
		return nil
	}
	return c.Core.Write(e, fields)
}

func hasPublic(fields []zapcore.Field) bool {
	for _, f := range fields {
		if f.Key == publicKey && f.Type == zapcore.BoolType && f.Integer == 1 {
			return true
		}
	}
	return false
}
