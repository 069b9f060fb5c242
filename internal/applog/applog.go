// Package applog builds the shell's slog sink: a text handler writing to
// stderr and a size-rotated log file, teed to a UI callback for warnings.
package applog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Setup.
type Options struct {
	Level slog.Level
	// File is the rotated log file. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console receives a copy of every record. Nil means os.Stderr.
	Console io.Writer
	// OnEntry receives records at or above EntryLevel. May be nil.
	OnEntry    EntryCallback
	EntryLevel slog.Level
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the logger described by opts. The returned closer releases the
// log file and must be called on shutdown.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		out    = console
		closer io.Closer = nopCloser{}
	)
	if file := strings.TrimSpace(opts.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(console, rotator)
		closer = rotator
	}

	base := slog.NewTextHandler(out, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(NewTeeHandler(base, opts.EntryLevel, opts.OnEntry)), closer, nil
}
