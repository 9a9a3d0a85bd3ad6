package config

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"
)

// Mode selects which scans run.
type Mode string

const (
	ModeSubdomain Mode = "subdomain"
	ModeTakeover  Mode = "takeover"
	ModeRecon     Mode = "recon"
	ModeAll       Mode = "all"
)

// ParseMode validates a scan mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSubdomain, ModeTakeover, ModeRecon, ModeAll:
		return m, nil
	}
	return "", fmt.Errorf("invalid scan mode %q (choose from subdomain, takeover, recon, all)", s)
}

// Includes reports whether running m also runs the scan other.
func (m Mode) Includes(other Mode) bool {
	return m == ModeAll || m == other
}

// Scan is the immutable description of one run.
type Scan struct {
	host     string
	wordlist []string
	threads  int
	mode     Mode
	selector RecordSelector
	wildcard bool
}

// NewScan validates its arguments and builds a Scan. The host is lowercased
// and stripped of a trailing dot; it must be a syntactically valid domain name.
func NewScan(host string, wordlist []string, threads int, mode Mode, selector RecordSelector) (*Scan, error) {
	host = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if _, ok := dns.IsDomainName(host); !ok || strings.ContainsAny(host, " \t") {
		return nil, fmt.Errorf("invalid host %q", host)
	}
	if threads <= 0 {
		return nil, fmt.Errorf("threads must be greater than zero, got %d", threads)
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if !selector.All() && len(selector.Types()) == 0 {
		return nil, fmt.Errorf("record type selector is empty")
	}

	return &Scan{
		host:     host,
		wordlist: append([]string(nil), wordlist...),
		threads:  threads,
		mode:     mode,
		selector: selector,
	}, nil
}

// WithWildcardCheck returns a copy of s with the wildcard probe enabled or disabled.
func (s *Scan) WithWildcardCheck(enabled bool) *Scan {
	c := *s
	c.wildcard = enabled
	return &c
}

func (s *Scan) Host() string             { return s.host }
func (s *Scan) Threads() int             { return s.threads }
func (s *Scan) Mode() Mode               { return s.mode }
func (s *Scan) Selector() RecordSelector { return s.selector }
func (s *Scan) WildcardCheck() bool      { return s.wildcard }

// RegisteredDomain returns the registrable domain (eTLD+1) of the host. It
// reports false when the host is itself a public suffix, such as github.io,
// or has no known suffix.
func (s *Scan) RegisteredDomain() (string, bool) {
	domain, err := publicsuffix.EffectiveTLDPlusOne(s.host)
	if err != nil {
		return "", false
	}
	return domain, true
}

// Wordlist returns a copy of the candidate labels.
func (s *Scan) Wordlist() []string {
	return append([]string(nil), s.wordlist...)
}

// Candidate returns the name queried for a wordlist entry.
func (s *Scan) Candidate(entry string) string {
	return entry + "." + s.host
}
