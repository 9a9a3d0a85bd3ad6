package dns

import (
	"context"
	"errors"
	"strings"
)

// Kind classifies the outcome of a lookup or zone transfer.
type Kind int

const (
	// Success means the query returned at least one answer of the requested type.
	Success Kind = iota
	// NameNotFound means the queried name does not exist (NXDOMAIN).
	NameNotFound
	// NoAnswer means the name exists but has no record of the requested type.
	NoAnswer
	// TransferRefused means a zone transfer came back without a start of authority.
	TransferRefused
	// TransientError covers timeouts, network failures and malformed or failed responses.
	TransientError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case NameNotFound:
		return "name not found"
	case NoAnswer:
		return "no answer"
	case TransferRefused:
		return "transfer refused"
	case TransientError:
		return "transient error"
	}
	return "unknown"
}

// ErrNoSOA is the cause attached to TransferRefused results.
var ErrNoSOA = errors.New("zone transfer response has no SOA record")

// Node is every record a zone holds for one owner name.
type Node struct {
	// Name is relative to the zone origin; the apex is "@".
	Name    string
	Records []string
}

// Text returns the records of the node on one line.
func (n Node) Text() string {
	return strings.Join(n.Records, "; ")
}

// Result is the outcome of a single lookup or zone transfer. Values holds the
// presentation form of each answer; Nodes is only set by zone transfers.
type Result struct {
	Kind   Kind
	Values []string
	Nodes  []Node
	Err    error
}

// Negative reports whether the result is an expected miss that callers
// should not report.
func (r Result) Negative() bool {
	return r.Kind == NameNotFound || r.Kind == NoAnswer
}

// Answer is a Success result carrying values.
func Answer(values ...string) Result {
	return Result{Kind: Success, Values: values}
}

// Failure is a TransientError result caused by err.
func Failure(err error) Result {
	return Result{Kind: TransientError, Err: err}
}

// Resolver is the resolution capability the scanners depend on.
type Resolver interface {
	// Resolve looks up records of type qtype for name.
	Resolve(ctx context.Context, name string, qtype uint16) Result
	// Nameservers returns the NS targets of host in Values.
	Nameservers(ctx context.Context, host string) Result
	// TransferZone requests a full transfer of host from server (an IP
	// address, optionally with a port) and returns the zone in Nodes.
	TransferZone(ctx context.Context, server, host string) Result
}
