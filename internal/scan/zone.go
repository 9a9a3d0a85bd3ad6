package scan

import (
	"context"

	mdns "github.com/miekg/dns"
	"github.com/resistanceisuseless/dnscan/internal/dns"
	"github.com/resistanceisuseless/dnscan/internal/report"
)

// Nameservers returns the authoritative nameservers of the target host. Any
// failure is logged and yields an empty list.
func (s *Scanner) Nameservers(ctx context.Context) []string {
	host := s.scan.Host()

	r := s.resolver.Nameservers(ctx, host)
	switch r.Kind {
	case dns.Success:
		return r.Values
	case dns.NameNotFound:
		s.log.Error("%s NOT FOUND.", host)
	default:
		s.log.Error("Testing Error: %s", describe(r))
	}
	return nil
}

// TransferZones attempts a zone transfer against every nameserver. The
// attempts are independent and share the scan's worker limit.
func (s *Scanner) TransferZones(ctx context.Context, nameservers []string) error {
	return s.runPool(ctx, nameservers, func(ctx context.Context, ns string) {
		s.log.Info("Testing nameserver: %s", ns)
		s.TransferZone(ctx, ns)
	})
}

// TransferZone resolves the address of nameserver ns and requests a full copy
// of the target zone from it. Each zone node becomes one finding.
func (s *Scanner) TransferZone(ctx context.Context, ns string) {
	tally := s.summary.Phase(PhaseZoneTransfer)
	tally.Tasks.Add(1)

	addr := s.resolver.Resolve(ctx, ns, mdns.TypeA)
	if addr.Kind != dns.Success {
		s.failed(tally, "Error in zone-transfer to %s: cannot resolve nameserver address: %s", ns, describe(addr))
		return
	}

	r := s.resolver.TransferZone(ctx, addr.Values[0], s.scan.Host())
	switch r.Kind {
	case dns.Success:
		for _, node := range r.Nodes {
			s.found(tally, report.Finding{
				Source: report.SourceZone,
				Name:   node.Name,
				Type:   "AXFR",
				Value:  node.Text(),
			})
		}
		s.log.Info("Successful zone-transfer to %s", ns)
	case dns.TransferRefused:
		s.failed(tally, "Zone-transfer failed for %s", ns)
	default:
		s.failed(tally, "Error in zone-transfer to %s: %s", ns, describe(r))
	}
}
