package scan

import (
	"context"
	"fmt"
	"strings"

	mdns "github.com/miekg/dns"
	"github.com/resistanceisuseless/dnscan/internal/config"
	"github.com/resistanceisuseless/dnscan/internal/dns"
	"github.com/resistanceisuseless/dnscan/internal/engine"
	"github.com/resistanceisuseless/dnscan/internal/report"
	"github.com/resistanceisuseless/dnscan/internal/summary"
)

// Phase names used for section headers and summary tallies.
const (
	PhaseZoneTransfer = "Zone-Transfer"
	PhaseSubdomain    = "Subdomain"
	PhaseTakeover     = "Possible Takeover"
	PhaseRecon        = "DNS Recon"
)

// Scanner runs the scans described by a config.Scan against a Resolver and
// streams everything it finds to a report.Sink.
type Scanner struct {
	scan     *config.Scan
	resolver dns.Resolver
	log      report.Sink
	summary  *summary.Summary
}

// New creates a Scanner. If sum is nil a private summary is used.
func New(scan *config.Scan, resolver dns.Resolver, log report.Sink, sum *summary.Summary) *Scanner {
	if sum == nil {
		sum = summary.New("", scan.Host())
	}
	return &Scanner{
		scan:     scan,
		resolver: resolver,
		log:      log,
		summary:  sum,
	}
}

// Summary returns the tallies collected so far.
func (s *Scanner) Summary() *summary.Summary {
	return s.summary
}

// Run executes the configured mode: nameserver discovery always, zone
// transfers only for ModeAll, then the subdomain, takeover and recon scans in
// that order. Each scan finishes before the next one starts.
func (s *Scanner) Run(ctx context.Context) error {
	mode := s.scan.Mode()

	s.log.Section(PhaseZoneTransfer)
	nameservers := s.Nameservers(ctx)
	if mode == config.ModeAll {
		if err := s.TransferZones(ctx, nameservers); err != nil {
			return err
		}
	} else {
		for _, ns := range nameservers {
			s.log.Info("Testing nameserver: %s", ns)
		}
	}

	steps := []struct {
		mode  config.Mode
		phase string
		run   func(context.Context) error
	}{
		{config.ModeSubdomain, PhaseSubdomain, s.Subdomains},
		{config.ModeTakeover, PhaseTakeover, s.Takeover},
		{config.ModeRecon, PhaseRecon, s.Recon},
	}
	for _, step := range steps {
		if !mode.Includes(step.mode) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Section(step.phase)
		if err := step.run(ctx); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Subdomains reports every candidate that has an address record.
func (s *Scanner) Subdomains(ctx context.Context) error {
	if s.scan.WildcardCheck() {
		s.DetectWildcard(ctx)
	}

	tally := s.summary.Phase(PhaseSubdomain)
	return s.each(ctx, func(ctx context.Context, entry string) {
		tally.Tasks.Add(1)
		name := s.scan.Candidate(entry)

		r := s.resolver.Resolve(ctx, name, mdns.TypeA)
		switch {
		case r.Kind == dns.Success:
			s.found(tally, report.Finding{
				Source: report.SourceSubdomain,
				Name:   name,
				Type:   "A",
				Value:  strings.Join(r.Values, ","),
			})
		case r.Negative():
		default:
			s.failed(tally, "Error resolving %s: %s", name, describe(r))
		}
	})
}

// Takeover reports every CNAME of every candidate. Whether the alias target
// can actually be claimed is left to the operator.
func (s *Scanner) Takeover(ctx context.Context) error {
	tally := s.summary.Phase(PhaseTakeover)
	return s.each(ctx, func(ctx context.Context, entry string) {
		tally.Tasks.Add(1)
		name := s.scan.Candidate(entry)

		r := s.resolver.Resolve(ctx, name, mdns.TypeCNAME)
		switch {
		case r.Kind == dns.Success:
			for _, target := range r.Values {
				s.found(tally, report.Finding{
					Source: report.SourceTakeover,
					Name:   name,
					Type:   "CNAME",
					Value:  target,
				})
			}
		case r.Negative():
		default:
			s.failed(tally, "Error resolving %s CNAME: %s", name, describe(r))
		}
	})
}

type recordType struct {
	name  string
	qtype uint16
}

// Recon queries every selected record type for every candidate. Types are
// queried one after another within a task and are classified independently.
func (s *Scanner) Recon(ctx context.Context) error {
	var types []recordType
	for _, name := range s.scan.Selector().Types() {
		qtype, ok := mdns.StringToType[name]
		if !ok {
			return fmt.Errorf("unknown record type: %s", name)
		}
		types = append(types, recordType{name: name, qtype: qtype})
	}

	tally := s.summary.Phase(PhaseRecon)
	return s.each(ctx, func(ctx context.Context, entry string) {
		tally.Tasks.Add(1)
		name := s.scan.Candidate(entry)

		for _, t := range types {
			if ctx.Err() != nil {
				return
			}
			r := s.resolver.Resolve(ctx, name, t.qtype)
			switch {
			case r.Kind == dns.Success:
				for _, v := range r.Values {
					s.found(tally, report.Finding{
						Source: report.SourceRecon,
						Name:   name,
						Type:   t.name,
						Value:  v,
					})
				}
			case r.Negative():
			default:
				s.failed(tally, "Error resolving %s %s: %s", name, t.name, describe(r))
			}
		}
	})
}

// each runs task for every wordlist entry on a pool that lives only for the
// duration of the call.
func (s *Scanner) each(ctx context.Context, task engine.Task) error {
	return s.runPool(ctx, s.scan.Wordlist(), task)
}

func (s *Scanner) runPool(ctx context.Context, items []string, task engine.Task) error {
	pool, err := engine.New(s.scan.Threads(), s.log)
	if err != nil {
		return err
	}
	pool.Run(ctx, items, task)
	return nil
}

func (s *Scanner) found(tally *summary.Tally, f report.Finding) {
	tally.Findings.Add(1)
	s.log.Finding(f)
}

func (s *Scanner) failed(tally *summary.Tally, format string, args ...interface{}) {
	tally.Errors.Add(1)
	s.log.Error(format, args...)
}

// describe renders the reason of a non-successful result.
func describe(r dns.Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Kind.String()
}
