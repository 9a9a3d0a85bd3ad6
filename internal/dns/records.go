package dns

import (
	"fmt"
	"net"
	"strings"

	"github.com/caffix/stringset"
	"github.com/miekg/dns"
)

// rdata returns the presentation form of rr without its header, e.g.
// "10 mail.example.com." for an MX record.
func rdata(rr dns.RR) string {
	return strings.TrimPrefix(rr.String(), rr.Header().String())
}

// buildNodes groups transferred records by owner name in the order the names
// first appear. The closing SOA of the stream is dropped.
func buildNodes(host string, rrs []dns.RR) ([]Node, error) {
	origin := strings.ToLower(dns.Fqdn(host))

	var soa dns.RR
	for _, rr := range rrs {
		if rr.Header().Rrtype == dns.TypeSOA {
			soa = rr
			break
		}
	}
	if soa == nil {
		return nil, ErrNoSOA
	}

	var nodes []Node
	index := make(map[string]int)
	for _, rr := range rrs {
		if rr != soa && dns.IsDuplicate(rr, soa) {
			continue
		}

		h := rr.Header()
		name := relativeName(h.Name, origin)
		record := fmt.Sprintf("%s %d %s %s %s", name, h.Ttl,
			dns.Class(h.Class).String(), dns.Type(h.Rrtype).String(), rdata(rr))

		i, found := index[name]
		if !found {
			i = len(nodes)
			index[name] = i
			nodes = append(nodes, Node{Name: name})
		}
		nodes[i].Records = append(nodes[i].Records, record)
	}
	return nodes, nil
}

// relativeName expresses owner relative to origin. Names outside the zone are
// returned unchanged.
func relativeName(owner, origin string) string {
	owner = strings.ToLower(owner)
	if owner == origin {
		return "@"
	}
	if strings.HasSuffix(owner, "."+origin) {
		return strings.TrimSuffix(owner, "."+origin)
	}
	return owner
}

// normalizeServers ensures host:port formatting and dedupes entries.
func normalizeServers(servers []string) []string {
	seen := stringset.New()
	defer seen.Close()

	var resolved []string
	for _, server := range servers {
		value := strings.TrimSpace(server)
		if value == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(value); err != nil {
			value = net.JoinHostPort(strings.Trim(value, "[]"), "53")
		}
		if seen.Has(value) {
			continue
		}
		seen.Insert(value)
		resolved = append(resolved, value)
	}
	return resolved
}

// loadSystemServers reads resolvers from a resolv.conf style file when available.
func loadSystemServers(path string) []string {
	var servers []string
	if conf, err := dns.ClientConfigFromFile(path); err == nil {
		for _, server := range conf.Servers {
			servers = append(servers, net.JoinHostPort(server, conf.Port))
		}
	}
	return servers
}
