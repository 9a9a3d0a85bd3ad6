package dns

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/resistanceisuseless/dnscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// zone is the data served by the test server for example.com.
var zone = map[string][]string{
	"www.example.com.":  {"www.example.com. 300 IN A 1.2.3.4", "www.example.com. 300 IN A 1.2.3.5"},
	"mail.example.com.": {"mail.example.com. 300 IN MX 10 mx.example.com."},
	"old.example.com.":  {"old.example.com. 300 IN CNAME unclaimed.saas-provider.example."},
	"txt.example.com.":  {"txt.example.com. 300 IN TXT \"v=spf1 -all\""},
	"example.com.":      {"example.com. 300 IN NS ns1.example.com.", "example.com. 300 IN NS ns2.example.com."},
}

const soaText = "example.com. 3600 IN SOA ns1.example.com. admin.example.com. 1 3600 600 86400 300"

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

func handler(t *testing.T) dns.HandlerFunc {
	return func(w dns.ResponseWriter, r *dns.Msg) {
		q := r.Question[0]
		m := &dns.Msg{}
		m.SetReply(r)

		if q.Qtype == dns.TypeAXFR {
			switch q.Name {
			case "example.com.":
				m.Answer = []dns.RR{
					mustRR(t, soaText),
					mustRR(t, "example.com. 300 IN NS ns1.example.com."),
					mustRR(t, "www.example.com. 300 IN A 1.2.3.4"),
					mustRR(t, "www.example.com. 300 IN TXT \"hello\""),
					mustRR(t, "dev.example.com. 300 IN CNAME www.example.com."),
					mustRR(t, soaText),
				}
			case "nosoa.example.":
				m.Answer = []dns.RR{mustRR(t, "www.nosoa.example. 300 IN A 9.9.9.9")}
			default:
				m.Rcode = dns.RcodeRefused
			}
			w.WriteMsg(m)
			return
		}

		if q.Name == "broken.example.com." {
			m.Rcode = dns.RcodeServerFailure
			w.WriteMsg(m)
			return
		}

		records, ok := zone[q.Name]
		if !ok {
			m.Rcode = dns.RcodeNameError
			w.WriteMsg(m)
			return
		}
		for _, s := range records {
			rr := mustRR(t, s)
			if rr.Header().Rrtype == q.Qtype {
				m.Answer = append(m.Answer, rr)
			}
		}
		w.WriteMsg(m)
	}
}

// startServer runs the test handler on UDP and TCP listeners bound to the
// same loopback port and returns that address.
func startServer(t *testing.T) string {
	t.Helper()

	var (
		pc  net.PacketConn
		l   net.Listener
		err error
	)
	for attempt := 0; attempt < 10; attempt++ {
		pc, err = net.ListenPacket("udp", "127.0.0.1:0")
		require.NoError(t, err)
		l, err = net.Listen("tcp", pc.LocalAddr().String())
		if err == nil {
			break
		}
		pc.Close()
	}
	require.NoError(t, err)

	for _, srv := range []*dns.Server{
		{PacketConn: pc, Handler: handler(t)},
		{Listener: l, Handler: handler(t)},
	} {
		started := make(chan struct{})
		srv.NotifyStartedFunc = func() { close(started) }
		go srv.ActivateAndServe()
		<-started
		t.Cleanup(func() { srv.Shutdown() })
	}
	return pc.LocalAddr().String()
}

func newTestClient(t *testing.T, servers ...string) *Client {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Resolvers.Servers = servers
	cfg.Resolvers.Timeout = 2
	cfg.Resolvers.TransferTimeout = 2
	return New(cfg)
}

func TestResolveClassification(t *testing.T) {
	client := newTestClient(t, startServer(t))
	ctx := context.Background()

	r := client.Resolve(ctx, "www.example.com", dns.TypeA)
	assert.Equal(t, Success, r.Kind)
	assert.Equal(t, []string{"1.2.3.4", "1.2.3.5"}, r.Values)

	r = client.Resolve(ctx, "mail.example.com", dns.TypeMX)
	assert.Equal(t, []string{"10 mx.example.com."}, r.Values)

	r = client.Resolve(ctx, "txt.example.com", dns.TypeTXT)
	assert.Equal(t, []string{"\"v=spf1 -all\""}, r.Values)

	r = client.Resolve(ctx, "bogus.example.com", dns.TypeA)
	assert.Equal(t, NameNotFound, r.Kind)
	assert.True(t, r.Negative())

	r = client.Resolve(ctx, "mail.example.com", dns.TypeA)
	assert.Equal(t, NoAnswer, r.Kind)
	assert.True(t, r.Negative())

	r = client.Resolve(ctx, "broken.example.com", dns.TypeA)
	assert.Equal(t, TransientError, r.Kind)
	assert.False(t, r.Negative())
	assert.ErrorContains(t, r.Err, "SERVFAIL")
}

func TestResolveFallsBackToNextServer(t *testing.T) {
	// the first upstream does not answer at all
	dead, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer dead.Close()

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Resolvers.Servers = []string{dead.LocalAddr().String(), startServer(t)}
	cfg.Resolvers.Timeout = 1
	client := New(cfg)

	r := client.Resolve(context.Background(), "www.example.com", dns.TypeA)
	assert.Equal(t, Success, r.Kind)
}

func TestResolveUnreachable(t *testing.T) {
	dead, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer dead.Close()

	client := newTestClient(t, dead.LocalAddr().String())
	client.udp.Timeout = 200 * time.Millisecond

	r := client.Resolve(context.Background(), "www.example.com", dns.TypeA)
	assert.Equal(t, TransientError, r.Kind)
	assert.Error(t, r.Err)
}

func TestNameservers(t *testing.T) {
	client := newTestClient(t, startServer(t))

	r := client.Nameservers(context.Background(), "example.com")
	require.Equal(t, Success, r.Kind)
	assert.Equal(t, []string{"ns1.example.com", "ns2.example.com"}, r.Values)

	r = client.Nameservers(context.Background(), "missing.example.com")
	assert.Equal(t, NameNotFound, r.Kind)
}

func TestTransferZone(t *testing.T) {
	addr := startServer(t)
	client := newTestClient(t, addr)

	r := client.TransferZone(context.Background(), addr, "example.com")
	require.Equal(t, Success, r.Kind, "%v", r.Err)
	require.Len(t, r.Nodes, 3)

	assert.Equal(t, "@", r.Nodes[0].Name)
	assert.Equal(t, []string{
		"@ 3600 IN SOA ns1.example.com. admin.example.com. 1 3600 600 86400 300",
		"@ 300 IN NS ns1.example.com.",
	}, r.Nodes[0].Records)

	assert.Equal(t, "www", r.Nodes[1].Name)
	assert.Equal(t, "www 300 IN A 1.2.3.4; www 300 IN TXT \"hello\"", r.Nodes[1].Text())

	assert.Equal(t, "dev", r.Nodes[2].Name)
}

func TestTransferZoneWithoutSOA(t *testing.T) {
	addr := startServer(t)
	client := newTestClient(t, addr)

	r := client.TransferZone(context.Background(), addr, "nosoa.example")
	assert.Equal(t, TransferRefused, r.Kind)
	assert.ErrorIs(t, r.Err, ErrNoSOA)
}

func TestTransferZoneRefusedRcodeIsAnError(t *testing.T) {
	addr := startServer(t)
	client := newTestClient(t, addr)

	r := client.TransferZone(context.Background(), addr, "other.example")
	assert.Equal(t, TransientError, r.Kind)
}

func TestTransferZoneConnectionFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	client := newTestClient(t, addr)
	r := client.TransferZone(context.Background(), addr, "example.com")
	assert.Equal(t, TransientError, r.Kind)
}

func TestReadTransferClosesConnectionWhenCancelled(t *testing.T) {
	local, remote := net.Pipe()
	defer remote.Close()

	transfer := &dns.Transfer{Conn: &dns.Conn{Conn: local}}
	envelopes := make(chan *dns.Envelope)
	defer close(envelopes)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := readTransfer(ctx, transfer, envelopes)
	assert.ErrorIs(t, err, context.Canceled)

	remote.SetReadDeadline(time.Now().Add(time.Second))
	_, err = remote.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestBuildNodesRequiresSOA(t *testing.T) {
	_, err := buildNodes("example.com", []dns.RR{mustRR(t, "www.example.com. 300 IN A 1.2.3.4")})
	assert.ErrorIs(t, err, ErrNoSOA)
}

func TestRelativeName(t *testing.T) {
	assert.Equal(t, "@", relativeName("Example.COM.", "example.com."))
	assert.Equal(t, "a.b", relativeName("a.b.example.com.", "example.com."))
	assert.Equal(t, "other.net.", relativeName("other.net.", "example.com."))
}

func TestNormalizeServers(t *testing.T) {
	got := normalizeServers([]string{"8.8.8.8", " 8.8.8.8:53 ", "", "1.1.1.1:5353", "2001:4860:4860::8888", "[2001:4860:4860::8888]:53"})
	assert.Equal(t, []string{"8.8.8.8:53", "1.1.1.1:5353", "[2001:4860:4860::8888]:53"}, got)
}

func TestLoadSystemServers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	require.NoError(t, os.WriteFile(path, []byte("nameserver 10.0.0.1\nnameserver 10.0.0.2\n"), 0644))

	assert.Equal(t, []string{"10.0.0.1:53", "10.0.0.2:53"}, loadSystemServers(path))
	assert.Empty(t, loadSystemServers(filepath.Join(t.TempDir(), "missing")))
}

func TestNewDefaultsServers(t *testing.T) {
	client := newTestClient(t)
	assert.NotEmpty(t, client.Servers())
	for _, s := range client.Servers() {
		assert.True(t, strings.Contains(s, ":"), s)
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "name not found", NameNotFound.String())
	assert.Equal(t, "transfer refused", TransferRefused.String())
}
