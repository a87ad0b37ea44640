package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

// timeFormat matches the run log's fixed line layout:
// timestamp - LEVEL - message
const timeFormat = "2006-01-02 15:04:05"

// Logger appends one line per event to the run log and echoes to the
// console. Errors and warnings always reach stderr; info lines reach
// stdout only in verbose mode.
type Logger struct {
	Verbose bool
	Debug   bool

	mu   sync.Mutex
	file io.WriteCloser
}

// New creates a logger appending to the file at path, creating the file
// and its parent directory if needed. An unopenable log path degrades to
// console-only logging rather than failing the run.
func New(path string, verbose bool) *Logger {
	l := &Logger{Verbose: verbose}
	if path == "" {
		return l
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "%s cannot create log directory: %v\n", color.YellowString("[warn]"), err)
		return l
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s cannot open log file: %v\n", color.YellowString("[warn]"), err)
		return l
	}

	l.file = f
	return l
}

// Close closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func (l *Logger) write(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}
	line := fmt.Sprintf("%s - %s - %s\n", time.Now().Format(timeFormat), level, fmt.Sprintf(msg, args...))
	io.WriteString(l.file, line)
}

func (l *Logger) Infof(msg string, args ...any) {
	l.write("INFO", msg, args...)
	if l.Verbose {
		fmt.Fprintf(os.Stdout, color.GreenString("[info] ")+msg+"\n", args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	l.write("DEBUG", msg, args...)
	if l.Debug {
		fmt.Fprintf(os.Stdout, color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.write("WARNING", msg, args...)
	fmt.Fprintf(os.Stderr, color.YellowString("[warn] ")+msg+"\n", args...)
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.write("ERROR", msg, args...)
	fmt.Fprintf(os.Stderr, color.RedString("[error] ")+msg+"\n", args...)
}
