// Package link decodes existing share URIs back into the canonical
// parameter model, enabling parse → re-encode round trips across
// formats.
package link

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"bugforge/internal/gen"
)

// ErrUnsupportedProtocol is returned when the scheme prefix matches
// none of vmess, vless, trojan, ss.
var ErrUnsupportedProtocol = errors.New("unsupported link protocol")

// ParsedLink is the reverse-path superset of gen.LinkParams: canonical
// connection fields plus transport metadata and the raw per-protocol
// secret fields.
type ParsedLink struct {
	Protocol gen.Protocol
	Remark   string

	Server string
	Port   int

	UUID     string // vmess, vless
	Password string // trojan, shadowsocks
	Cipher   string // shadowsocks
	AlterID  string // vmess
	Security string // vmess scy

	TLS     bool
	SNI     string
	Network string
	WSPath  string
	WSHost  string
}

// Secret returns whichever credential the protocol carries.
func (p *ParsedLink) Secret() string {
	if p.UUID != "" {
		return p.UUID
	}
	return p.Password
}

// Params converts a parsed link into the canonical encoder input. The
// original remark survives as the provider label so a re-encoded link
// stays recognizable.
func (p *ParsedLink) Params() gen.LinkParams {
	path := p.WSPath
	if path == "" {
		path = "/"
	}
	provider := p.Remark
	if provider == "" {
		provider = "Imported"
	}
	return gen.LinkParams{
		Protocol: p.Protocol,
		Secret:   p.Secret(),
		TLS:      p.TLS,
		Server:   p.Server,
		Host:     p.WSHost,
		SNI:      p.SNI,
		Path:     path,
		Port:     p.Port,
		Country:  "Unknown",
		Provider: provider,
	}
}

// ApplyMask injects a custom server into an already-parsed link. The
// server is always replaced; only wildcard mode also rewrites SNI and
// the ws host to "<server>.<original sni>", mirroring the forward-path
// resolver.
func ApplyMask(p *ParsedLink, customServer string, wildcard bool) {
	if customServer == "" {
		return
	}
	if wildcard && p.SNI != "" {
		sub := customServer + "." + p.SNI
		p.SNI = sub
		p.WSHost = sub
	}
	p.Server = customServer
}

// Parse decodes a share URI of any of the four supported schemes.
func Parse(raw string) (*ParsedLink, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.Trim(raw, "\r\n")

	switch {
	case strings.HasPrefix(raw, "vmess://"):
		return parseVMess(raw)
	case strings.HasPrefix(raw, "vless://"):
		return parseQueryLink(raw, gen.Vless)
	case strings.HasPrefix(raw, "trojan://"):
		return parseQueryLink(raw, gen.Trojan)
	case strings.HasPrefix(raw, "ss://"):
		return parseShadowsocks(raw)
	}

	scheme, _, _ := strings.Cut(raw, "://")
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, scheme)
}

// decodeBase64 tolerates missing padding and the URL-safe alphabet;
// scraped links carry both variants.
func decodeBase64(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	if n := len(s) % 4; n != 0 {
		s += strings.Repeat("=", 4-n)
	}

	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return string(b), nil
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
