// Package singbox renders link parameters into a generic outbound
// config: a JSON document with dns, inbounds, per-proxy outbounds under
// an Internet selector and a Best Latency urltest, and fixed routing
// rules.
package singbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"bugforge/internal/encode"
	"bugforge/internal/gen"
)

type Encoder struct{}

type dnsServer struct {
	Tag     string `json:"tag"`
	Address string `json:"address"`
	Detour  string `json:"detour,omitempty"`
}

type dnsRule struct {
	Outbound []string `json:"outbound,omitempty"`
	Server   string   `json:"server"`
}

type dnsBlock struct {
	Servers []dnsServer `json:"servers"`
	Rules   []dnsRule   `json:"rules"`
	Final   string      `json:"final"`
}

type inbound struct {
	Type       string `json:"type"`
	Tag        string `json:"tag"`
	Listen     string `json:"listen"`
	ListenPort int    `json:"listen_port"`
	Sniff      bool   `json:"sniff"`
}

type tlsOptions struct {
	Enabled    bool   `json:"enabled"`
	ServerName string `json:"server_name"`
	Insecure   bool   `json:"insecure"`
}

type transportOptions struct {
	Type    string            `json:"type"`
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

type outbound struct {
	Type       string            `json:"type"`
	Tag        string            `json:"tag"`
	Server     string            `json:"server,omitempty"`
	ServerPort int               `json:"server_port,omitempty"`
	UUID       string            `json:"uuid,omitempty"`
	Security   string            `json:"security,omitempty"`
	AlterID    *int              `json:"alter_id,omitempty"`
	Password   string            `json:"password,omitempty"`
	Method     string            `json:"method,omitempty"`
	Plugin     string            `json:"plugin,omitempty"`
	PluginOpts string            `json:"plugin_opts,omitempty"`
	TLS        *tlsOptions       `json:"tls,omitempty"`
	Transport  *transportOptions `json:"transport,omitempty"`

	// selector / urltest fields
	Outbounds []string `json:"outbounds,omitempty"`
	Default   string   `json:"default,omitempty"`
	URL       string   `json:"url,omitempty"`
	Interval  string   `json:"interval,omitempty"`
}

type routeRule struct {
	Protocol string   `json:"protocol,omitempty"`
	IPCIDR   []string `json:"ip_cidr,omitempty"`
	Outbound string   `json:"outbound"`
}

type routeBlock struct {
	Rules []routeRule `json:"rules"`
	Final string      `json:"final"`
}

type document struct {
	DNS       dnsBlock   `json:"dns"`
	Inbounds  []inbound  `json:"inbounds"`
	Outbounds []outbound `json:"outbounds"`
	Route     routeBlock `json:"route"`
}

const (
	selectorTag = "Internet"
	urltestTag  = "Best Latency"
)

func (e *Encoder) Encode(entries []gen.LinkParams, _ gen.Options) (string, error) {
	var proxies []outbound
	var tags []string
	index := 0
	for _, entry := range entries {
		if !encode.Known(entry.Protocol) {
			continue
		}
		index++
		tag := encode.DisplayName(index, entry)
		proxies = append(proxies, proxyOutbound(entry, tag))
		tags = append(tags, tag)
	}

	doc := document{
		DNS: dnsBlock{
			Servers: []dnsServer{
				{Tag: "remote", Address: "https://8.8.8.8/dns-query", Detour: selectorTag},
				{Tag: "local", Address: "local", Detour: "direct"},
			},
			Rules: []dnsRule{
				{Outbound: []string{"any"}, Server: "local"},
			},
			Final: "remote",
		},
		Inbounds: []inbound{
			{Type: "mixed", Tag: "mixed-in", Listen: "127.0.0.1", ListenPort: 2080, Sniff: true},
		},
		Outbounds: buildOutbounds(proxies, tags),
		Route: routeBlock{
			Rules: []routeRule{
				{Protocol: "dns", Outbound: "dns-out"},
				{Protocol: "quic", Outbound: "block"},
				{IPCIDR: []string{"224.0.0.0/3", "ff00::/8"}, Outbound: "block"},
			},
			Final: selectorTag,
		},
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("outbound config marshal: %w", err)
	}
	return string(b), nil
}

func buildOutbounds(proxies []outbound, tags []string) []outbound {
	selectorMembers := append([]string{urltestTag}, tags...)

	out := make([]outbound, 0, len(proxies)+6)
	out = append(out,
		outbound{Type: "selector", Tag: selectorTag, Outbounds: selectorMembers, Default: urltestTag},
		outbound{Type: "urltest", Tag: urltestTag, Outbounds: tags, URL: "http://www.gstatic.com/generate_204", Interval: "5m"},
	)
	out = append(out, proxies...)
	out = append(out,
		outbound{Type: "direct", Tag: "direct"},
		outbound{Type: "direct", Tag: "bypass"},
		outbound{Type: "block", Tag: "block"},
		outbound{Type: "dns", Tag: "dns-out"},
	)
	return out
}

func proxyOutbound(e gen.LinkParams, tag string) outbound {
	// Shadowsocks stays flat: the v2ray-plugin option string carries
	// its own TLS and websocket signaling, the shared tls/transport
	// envelope does not apply.
	if e.Protocol == gen.Shadowsocks {
		segments := []string{"mux=0", "mode=websocket", "path=" + e.Path, "host=" + e.Host}
		if e.TLS {
			segments = append(segments, "tls")
		}
		return outbound{
			Type:       "shadowsocks",
			Tag:        tag,
			Server:     e.Server,
			ServerPort: e.Port,
			Method:     "none",
			Password:   e.Secret,
			Plugin:     "v2ray-plugin",
			PluginOpts: strings.Join(segments, ";"),
		}
	}

	o := outbound{
		Tag:        tag,
		Server:     e.Server,
		ServerPort: e.Port,
		TLS: &tlsOptions{
			Enabled:    e.TLS,
			ServerName: e.SNI,
			Insecure:   true,
		},
		Transport: &transportOptions{
			Type:    "ws",
			Path:    e.Path,
			Headers: map[string]string{"Host": e.Host},
		},
	}

	switch e.Protocol {
	case gen.Vmess:
		alterID := 0
		o.Type = "vmess"
		o.UUID = e.Secret
		o.Security = "zero"
		o.AlterID = &alterID
	case gen.Vless:
		o.Type = "vless"
		o.UUID = e.Secret
	case gen.Trojan:
		o.Type = "trojan"
		o.Password = e.Secret
	}
	return o
}

func init() {
	encode.Register("singbox", func() encode.Encoder { return &Encoder{} })
}
