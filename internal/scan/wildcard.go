package scan

import (
	"context"
	"math/rand"
	"strings"

	"github.com/caffix/stringset"
	mdns "github.com/miekg/dns"
	"github.com/resistanceisuseless/dnscan/internal/dns"
)

const (
	wildcardProbes    = 5
	wildcardThreshold = 3
	probeLength       = 20
)

// DetectWildcard resolves random labels under the target host. When most of
// them answer, the host has a wildcard record and subdomain results will
// include false positives; the addresses are logged and returned.
func (s *Scanner) DetectWildcard(ctx context.Context) []string {
	host := s.scan.Host()

	addrs := stringset.New()
	defer addrs.Close()

	var ordered []string
	hits := 0
	for _, label := range probeLabels(wildcardProbes) {
		r := s.resolver.Resolve(ctx, label+"."+host, mdns.TypeA)
		if r.Kind != dns.Success {
			continue
		}
		hits++
		for _, v := range r.Values {
			if !addrs.Has(v) {
				addrs.Insert(v)
				ordered = append(ordered, v)
			}
		}
	}

	if hits < wildcardThreshold {
		s.log.Debug("No wildcard DNS detected for %s", host)
		return nil
	}
	s.log.Warn("Wildcard DNS detected for %s: %d addresses (%s)", host, len(ordered), strings.Join(ordered, ", "))
	return ordered
}

func probeLabels(count int) []string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"

	labels := make([]string, 0, count)
	for len(labels) < count {
		var b strings.Builder
		for i := 0; i < probeLength; i++ {
			b.WriteByte(charset[rand.Intn(len(charset))])
		}
		labels = append(labels, b.String())
	}
	return labels
}
