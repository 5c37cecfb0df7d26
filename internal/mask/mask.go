package mask

import (
	"golang.org/x/net/idna"
)

// BugType selects the host-masking strategy applied when deriving
// connection parameters from a bug host.
type BugType string

const (
	// Default ignores the bug value; everything points at the main domain.
	Default BugType = "default"
	// NonWildcard dials the bug host but presents the main domain in
	// SNI and the HTTP Host header.
	NonWildcard BugType = "non-wildcard"
	// Wildcard dials the bug host and presents "<bug>.<main>" as
	// SNI/Host, relying on wildcard certificate tolerance.
	Wildcard BugType = "wildcard"
)

// HostTriple carries the three addresses a masked connection is built
// from: the endpoint actually dialed, the HTTP Host header, and the
// TLS SNI.
type HostTriple struct {
	Server string
	Host   string
	SNI    string
}

// normalize maps unicode domains to punycode. Bug lists are pasted by
// hand and occasionally carry IDN hosts; on any error the raw value is
// kept as-is.
func normalize(domain string) string {
	if ascii, err := idna.Lookup.ToASCII(domain); err == nil && ascii != "" {
		return ascii
	}
	return domain
}

// Resolve maps a bug strategy onto the concrete server/host/SNI values.
// These determine what the TLS handshake and Host header expose versus
// what the transport dials, so the mapping must be exact: a wrong value
// produces a link that connects nowhere rather than one that is merely
// mislabeled.
func Resolve(bugType BugType, bugValue, mainDomain string) HostTriple {
	main := normalize(mainDomain)
	bug := normalize(bugValue)

	switch bugType {
	case NonWildcard:
		return HostTriple{Server: bug, Host: main, SNI: main}
	case Wildcard:
		sub := bug + "." + main
		return HostTriple{Server: bug, Host: sub, SNI: sub}
	default:
		return HostTriple{Server: main, Host: main, SNI: main}
	}
}
