package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level orders log records by severity.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

func (lv Level) String() string {
	if name, ok := levelNames[lv]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(lv))
}

// ParseLevel maps a config string to a Level. Empty means INFO.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "":
		return INFO, nil
	case "WARNING":
		return WARN, nil
	}
	for lv, name := range levelNames {
		if name == s {
			return lv, nil
		}
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

const (
	defaultLogDir  = ".auditor/logs"
	defaultLogFile = "auditor.log"

	rotateBytes = 10 << 20
	keepBackups = 5
	keepFor     = 7 * 24 * time.Hour
)

// Options controls where and how much the global logger writes.
type Options struct {
	ProjectDir string
	Dir        string // relative to ProjectDir unless absolute
	Level      Level
	Stderr     bool // mirror records to stderr (--verbose)
}

// Logger writes leveled records to a rotating file.
type Logger struct {
	level atomic.Int32
	out   *log.Logger
	sink  io.Closer
	path  string
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger

	discard = newDiscard()
)

func newDiscard() *Logger {
	l := &Logger{}
	l.level.Store(int32(FATAL + 1))
	return l
}

// Initialize replaces the global logger with one writing under opts.Dir.
func Initialize(opts Options) error {
	dir := opts.Dir
	if dir == "" {
		dir = defaultLogDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(opts.ProjectDir, dir)
	}

	path := filepath.Join(dir, defaultLogFile)
	rf, err := openRotating(path, rotateBytes, keepBackups, keepFor)
	if err != nil {
		return err
	}

	var w io.Writer = rf
	if opts.Stderr {
		w = io.MultiWriter(rf, os.Stderr)
	}
	l := &Logger{
		out:  log.New(w, "", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		sink: rf,
		path: path,
	}
	l.level.Store(int32(opts.Level))

	globalMu.Lock()
	prev := globalLogger
	globalLogger = l
	globalMu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return nil
}

// GetLogger returns the global logger. Until Initialize runs it drops every
// record, so packages and tests never touch the disk.
func GetLogger() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger == nil {
		return discard
	}
	return globalLogger
}

// calldepth points Lshortfile at the caller of Debug/Info/... rather than here.
const calldepth = 3

func (l *Logger) logf(lv Level, format string, args ...interface{}) {
	if lv < Level(l.level.Load()) || l.out == nil {
		return
	}
	l.out.Output(calldepth, "["+lv.String()+"] "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debug(format string, v ...interface{}) { l.logf(DEBUG, format, v...) }
func (l *Logger) Info(format string, v ...interface{})  { l.logf(INFO, format, v...) }
func (l *Logger) Warn(format string, v ...interface{})  { l.logf(WARN, format, v...) }
func (l *Logger) Error(format string, v ...interface{}) { l.logf(ERROR, format, v...) }

// SetLevel sets the minimum level written.
func (l *Logger) SetLevel(lv Level) { l.level.Store(int32(lv)) }

// LogPath is the active log file, empty for the discard logger.
func (l *Logger) LogPath() string { return l.path }

func (l *Logger) Close() error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

func Debug(format string, v ...interface{}) { GetLogger().logf(DEBUG, format, v...) }
func Info(format string, v ...interface{})  { GetLogger().logf(INFO, format, v...) }
func Warn(format string, v ...interface{})  { GetLogger().logf(WARN, format, v...) }
func Error(format string, v ...interface{}) { GetLogger().logf(ERROR, format, v...) }

// Close closes the global logger.
func Close() error { return GetLogger().Close() }

type stdlogBridge struct{}

func (stdlogBridge) Write(p []byte) (int, error) {
	GetLogger().logf(INFO, "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// RedirectStandardLog routes the standard library logger, which chromedp and
// a few other dependencies write to, through the global logger.
func RedirectStandardLog() {
	log.SetFlags(0)
	log.SetOutput(stdlogBridge{})
}
