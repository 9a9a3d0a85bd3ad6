package report

import (
	"fmt"
	"sync"
)

// Entry is a line recorded by Memory.
type Entry struct {
	Level   Level
	Message string
}

// Memory is a Sink that keeps everything in memory. It is meant for tests and
// for callers that want to inspect a scan's output programmatically.
type Memory struct {
	mu       sync.Mutex
	entries  []Entry
	findings []Finding
	sections []string
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Debug(format string, args ...interface{}) { m.add(LevelDebug, format, args...) }
func (m *Memory) Info(format string, args ...interface{})  { m.add(LevelInfo, format, args...) }
func (m *Memory) Warn(format string, args ...interface{})  { m.add(LevelWarn, format, args...) }
func (m *Memory) Error(format string, args ...interface{}) { m.add(LevelError, format, args...) }

func (m *Memory) Finding(f Finding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findings = append(m.findings, f)
}

func (m *Memory) Section(title string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sections = append(m.sections, title)
}

func (m *Memory) add(level Level, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
}

// Findings returns a copy of the recorded findings.
func (m *Memory) Findings() []Finding {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Finding(nil), m.findings...)
}

// Messages returns the messages recorded at the given level.
func (m *Memory) Messages(level Level) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var msgs []string
	for _, e := range m.entries {
		if e.Level == level {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

// Sections returns the section titles in the order they were printed.
func (m *Memory) Sections() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sections...)
}
