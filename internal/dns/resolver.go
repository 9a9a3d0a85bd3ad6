package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/resistanceisuseless/dnscan/internal/config"
	"go.uber.org/ratelimit"
)

// fallbackServers are used when neither the configuration nor the system
// provide a resolver.
var fallbackServers = []string{
	"8.8.8.8:53",        // Google
	"1.1.1.1:53",        // Cloudflare
	"208.67.222.222:53", // OpenDNS
}

// Client is the live Resolver. It holds no per-query state and is safe for
// concurrent use by any number of workers.
type Client struct {
	servers         []string
	udp             *dns.Client
	tcp             *dns.Client
	timeout         time.Duration
	transferTimeout time.Duration
	limiter         ratelimit.Limiter
}

// New builds a Client from the resolver and rate limit settings of cfg.
func New(cfg *config.Config) *Client {
	servers := normalizeServers(cfg.Resolvers.Servers)
	if len(servers) == 0 {
		servers = loadSystemServers("/etc/resolv.conf")
	}
	if len(servers) == 0 {
		servers = fallbackServers
	}

	timeout := seconds(cfg.Resolvers.Timeout, config.DefaultTimeout)
	transferTimeout := seconds(cfg.Resolvers.TransferTimeout, config.DefaultTransferTimeout)

	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimit.Global > 0 {
		limiter = ratelimit.New(cfg.RateLimit.Global)
	}

	return &Client{
		servers:         servers,
		udp:             &dns.Client{Net: "udp", Timeout: timeout},
		tcp:             &dns.Client{Net: "tcp", Timeout: timeout},
		timeout:         timeout,
		transferTimeout: transferTimeout,
		limiter:         limiter,
	}
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// Servers returns the upstream resolvers in the order they are tried.
func (c *Client) Servers() []string {
	return append([]string(nil), c.servers...)
}

// Resolve implements Resolver.
func (c *Client) Resolve(ctx context.Context, name string, qtype uint16) Result {
	resp, err := c.exchange(ctx, name, qtype)
	if err != nil {
		return Failure(err)
	}
	return classify(resp, name, qtype)
}

// Nameservers implements Resolver.
func (c *Client) Nameservers(ctx context.Context, host string) Result {
	result := c.Resolve(ctx, host, dns.TypeNS)
	for i, v := range result.Values {
		result.Values[i] = strings.TrimSuffix(v, ".")
	}
	return result
}

// exchange sends the question to each upstream in turn until one gives a
// usable answer. Server failures and refusals move on to the next upstream.
func (c *Client) exchange(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	msg := &dns.Msg{}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range c.servers {
		c.limiter.Take()

		resp, _, err := c.udp.ExchangeContext(ctx, msg, server)
		if err == nil && resp.Truncated {
			resp, _, err = c.tcp.ExchangeContext(ctx, msg, server)
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("query %s %s via %s: %w", name, dns.TypeToString[qtype], server, err)
			continue
		}

		if resp.Rcode == dns.RcodeServerFailure || resp.Rcode == dns.RcodeRefused {
			lastErr = fmt.Errorf("query %s %s via %s: %s", name, dns.TypeToString[qtype], server, dns.RcodeToString[resp.Rcode])
			continue
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no resolvers configured")
	}
	return nil, lastErr
}

// classify maps a response onto the result taxonomy.
func classify(resp *dns.Msg, name string, qtype uint16) Result {
	switch resp.Rcode {
	case dns.RcodeNameError:
		return Result{Kind: NameNotFound}
	case dns.RcodeSuccess:
	default:
		return Failure(fmt.Errorf("query %s %s: %s", name, dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode]))
	}

	var values []string
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype == qtype {
			values = append(values, rdata(rr))
		}
	}
	if len(values) == 0 {
		return Result{Kind: NoAnswer}
	}
	return Answer(values...)
}

// TransferZone implements Resolver.
func (c *Client) TransferZone(ctx context.Context, server, host string) Result {
	addr := server
	if _, _, err := net.SplitHostPort(server); err != nil {
		addr = net.JoinHostPort(server, "53")
	}

	msg := &dns.Msg{}
	msg.SetAxfr(dns.Fqdn(host))

	transfer := &dns.Transfer{
		DialTimeout:  c.timeout,
		ReadTimeout:  c.transferTimeout,
		WriteTimeout: c.timeout,
	}

	c.limiter.Take()
	envelopes, err := transfer.In(msg, addr)
	if err != nil {
		return Failure(fmt.Errorf("failed to initiate zone transfer from %s: %w", addr, err))
	}

	transferCtx, cancel := context.WithTimeout(ctx, c.transferTimeout)
	defer cancel()

	rrs, err := readTransfer(transferCtx, transfer, envelopes)
	if err != nil {
		if errors.Is(err, dns.ErrSoa) {
			return Result{Kind: TransferRefused, Err: ErrNoSOA}
		}
		return Failure(fmt.Errorf("zone transfer from %s: %w", addr, err))
	}

	nodes, err := buildNodes(host, rrs)
	if err != nil {
		return Result{Kind: TransferRefused, Err: err}
	}
	return Result{Kind: Success, Nodes: nodes}
}

// readTransfer collects every record of a transfer stream. If it gives up
// early the connection is closed so the reader goroutine of transfer stops,
// and whatever it still sends is drained in the background.
func readTransfer(ctx context.Context, transfer *dns.Transfer, envelopes chan *dns.Envelope) ([]dns.RR, error) {
	var rrs []dns.RR
	for {
		select {
		case <-ctx.Done():
			if transfer.Conn != nil {
				transfer.Close()
			}
			go drain(envelopes)
			return nil, ctx.Err()
		case envelope, ok := <-envelopes:
			if !ok {
				return rrs, nil
			}
			if envelope.Error != nil {
				go drain(envelopes)
				return nil, envelope.Error
			}
			rrs = append(rrs, envelope.RR...)
		}
	}
}

func drain(envelopes chan *dns.Envelope) {
	for range envelopes {
	}
}
