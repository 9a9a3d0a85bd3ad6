package summary

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/resistanceisuseless/dnscan/internal/report"
)

// Tally counts the outcomes of one scan phase. Counters are updated by
// workers concurrently.
type Tally struct {
	Tasks    atomic.Int64
	Findings atomic.Int64
	Errors   atomic.Int64
}

// Summary collects a Tally per phase in the order phases first report.
type Summary struct {
	ScanID string
	Target string

	mu        sync.Mutex
	startTime time.Time
	order     []string
	tallies   map[string]*Tally
}

// New starts the clock for the scan scanID against target.
func New(scanID, target string) *Summary {
	return &Summary{
		ScanID:    scanID,
		Target:    target,
		startTime: time.Now(),
		tallies:   make(map[string]*Tally),
	}
}

// Phase returns the tally for name, creating it on first use.
func (s *Summary) Phase(name string) *Tally {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tallies[name]
	if !ok {
		t = &Tally{}
		s.tallies[name] = t
		s.order = append(s.order, name)
	}
	return t
}

// Phases returns the phase names in reporting order.
func (s *Summary) Phases() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Print writes one line per phase plus a closing line to log.
func (s *Summary) Print(log report.Sink) {
	log.Section("Summary")
	for _, name := range s.Phases() {
		t := s.Phase(name)
		log.Info("%-14s %d tasks, %d findings, %d errors",
			name+":", t.Tasks.Load(), t.Findings.Load(), t.Errors.Load())
	}
	log.Info("Scan %s of %s finished in %s", s.ScanID, s.Target, formatDuration(time.Since(s.startTime)))
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
