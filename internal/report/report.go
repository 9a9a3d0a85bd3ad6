package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TimeLayout matches the timestamp prefix of every report line.
const TimeLayout = "2006-01-02 15:04:05,000"

// Level is the severity attached to a report line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Source identifies the scan that produced a finding.
type Source string

const (
	SourceSubdomain Source = "subdomain"
	SourceTakeover  Source = "takeover"
	SourceRecon     Source = "recon"
	SourceZone      Source = "axfr"
)

// Finding is a single positive outcome of a query. Findings are streamed to
// the sink as they happen and are never collected.
type Finding struct {
	Source Source
	Name   string
	Type   string
	Value  string
}

func (f Finding) String() string {
	switch f.Source {
	case SourceSubdomain:
		return f.Name
	case SourceTakeover:
		return f.Name + " -> " + f.Value
	case SourceZone:
		return f.Name + " " + f.Value
	}
	return fmt.Sprintf("%s  %s  -> %s", f.Name, f.Type, f.Value)
}

// Sink receives every line a scan produces. Implementations must be safe for
// concurrent use and must never interleave two lines.
type Sink interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Finding(f Finding)
	Section(title string)
}

// FindingWriter persists findings as they arrive, e.g. to a results file.
type FindingWriter interface {
	WriteFinding(f Finding) error
}

var levelColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlue),
	LevelInfo:  color.New(color.FgHiGreen),
	LevelWarn:  color.New(color.FgHiYellow),
	LevelError: color.New(color.FgHiRed),
}

var sectionColor = color.New(color.FgHiCyan)

// Logger is the terminal implementation of Sink. Each call produces exactly
// one write to the underlying writer while holding the lock.
type Logger struct {
	mu      sync.Mutex
	writer  io.Writer
	verbose bool
	now     func() time.Time
	writers []FindingWriter
}

// New creates a Logger writing to w. Debug lines are dropped unless verbose is set.
func New(w io.Writer, verbose bool) *Logger {
	if w == nil {
		w = color.Output
	}
	return &Logger{
		writer:  w,
		verbose: verbose,
		now:     time.Now,
	}
}

// AddWriter registers a FindingWriter that receives a copy of every finding.
func (l *Logger) AddWriter(w FindingWriter) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writers = append(l.writers, w)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.log(LevelDebug, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, fmt.Sprintf(format, args...))
}

// Finding logs f at info level and forwards it to the registered writers.
func (l *Logger) Finding(f Finding) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.write(LevelInfo, f.String())
	for _, w := range l.writers {
		if err := w.WriteFinding(f); err != nil {
			l.write(LevelError, fmt.Sprintf("Failed to write finding for %s: %v", f.Name, err))
		}
	}
}

// Section prints a header separating the output of two scan phases.
func (l *Logger) Section(title string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	dashes := strings.Repeat("-", 13)
	sectionColor.Fprintf(l.writer, "\n%s %s %s\n", dashes, title, dashes)
}

func (l *Logger) log(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(level, msg)
}

// write must be called with the lock held.
func (l *Logger) write(level Level, msg string) {
	tag := levelColors[level].Sprint(level.String())
	line := fmt.Sprintf("%s - %s - %s\n", l.now().Format(TimeLayout), tag, msg)
	io.WriteString(l.writer, line)
}
