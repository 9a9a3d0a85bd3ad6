package config

import (
	"fmt"
	"strings"

	"github.com/caffix/stringset"
	"github.com/miekg/dns"
)

// AllSentinel is the record-type value that selects every recon type.
const AllSentinel = "ALL"

// AllRecordTypes is the fixed set queried when the selector is AllTypes.
var AllRecordTypes = []string{"A", "AAAA", "CNAME", "MX", "PTR", "SOA", "HINFO", "TXT"}

// RecordSelector chooses the record types queried by recon scans. It is
// either AllTypes or an explicit, non-empty set and never changes once built.
type RecordSelector struct {
	all   bool
	types []string
}

// AllTypes selects AllRecordTypes.
func AllTypes() RecordSelector {
	return RecordSelector{all: true}
}

// Explicit selects the given record types. Duplicates are dropped, order is
// kept, and every name must be a known DNS type.
func Explicit(types ...string) (RecordSelector, error) {
	seen := stringset.New()
	defer seen.Close()

	var selected []string
	for _, t := range types {
		name := strings.ToUpper(strings.TrimSpace(t))
		if name == "" || seen.Has(name) {
			continue
		}
		if _, ok := dns.StringToType[name]; !ok {
			return RecordSelector{}, fmt.Errorf("unknown record type: %s", t)
		}
		seen.Insert(name)
		selected = append(selected, name)
	}

	if len(selected) == 0 {
		return RecordSelector{}, fmt.Errorf("at least one record type is required")
	}
	return RecordSelector{types: selected}, nil
}

// ParseSelector resolves command line or config values into a selector. Any
// value equal to AllSentinel selects every type; comma separated values are
// split.
func ParseSelector(values []string) (RecordSelector, error) {
	var types []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(part), AllSentinel) {
				return AllTypes(), nil
			}
			types = append(types, part)
		}
	}
	return Explicit(types...)
}

// All reports whether the selector is AllTypes.
func (s RecordSelector) All() bool {
	return s.all
}

// Types returns the selected record type names in query order.
func (s RecordSelector) Types() []string {
	if s.all {
		return append([]string(nil), AllRecordTypes...)
	}
	return append([]string(nil), s.types...)
}

func (s RecordSelector) String() string {
	if s.all {
		return AllSentinel
	}
	return strings.Join(s.types, ",")
}
