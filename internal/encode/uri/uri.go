// Package uri renders link parameters into shareable proxy URIs:
// vmess as base64 JSON, vless/trojan as query-string URIs, shadowsocks
// as SIP002 with an inline v2ray-plugin option string.
package uri

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"bugforge/internal/encode"
	"bugforge/internal/gen"
)

type Encoder struct{}

// vmessJSON is the legacy v2rayN share format carried inside
// vmess:// base64 payloads.
type vmessJSON struct {
	V    string `json:"v"`
	Ps   string `json:"ps"`
	Add  string `json:"add"`
	Port int    `json:"port"`
	ID   string `json:"id"`
	Aid  string `json:"aid"`
	Scy  string `json:"scy"`
	Net  string `json:"net"`
	Type string `json:"type"`
	Host string `json:"host"`
	Path string `json:"path"`
	TLS  string `json:"tls"`
	SNI  string `json:"sni"`
}

func (e *Encoder) Encode(entries []gen.LinkParams, _ gen.Options) (string, error) {
	var lines []string
	index := 0
	for _, entry := range entries {
		if !encode.Known(entry.Protocol) {
			continue
		}
		index++
		name := encode.DisplayName(index, entry)

		var line string
		switch entry.Protocol {
		case gen.Vmess:
			line = vmessURI(entry, name)
		case gen.Vless, gen.Trojan:
			line = queryURI(entry, name)
		case gen.Shadowsocks:
			line = shadowsocksURI(entry, name)
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func vmessURI(e gen.LinkParams, name string) string {
	tls := ""
	if e.TLS {
		tls = "tls"
	}
	payload := vmessJSON{
		V:    "2",
		Ps:   name,
		Add:  e.Server,
		Port: e.Port,
		ID:   e.Secret,
		Aid:  "0",
		Scy:  "zero",
		Net:  "ws",
		Type: "none",
		Host: e.Host,
		Path: e.Path,
		TLS:  tls,
		SNI:  e.SNI,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return "vmess://" + base64.StdEncoding.EncodeToString(b)
}

// queryURI covers vless and trojan. Parameter order is fixed by hand:
// clients tolerate any order but the emitted links are diffed and
// re-parsed in tests, so url.Values' alphabetical sort is avoided.
func queryURI(e gen.LinkParams, name string) string {
	security := "none"
	if e.TLS {
		security = "tls"
	}

	params := make([]string, 0, 6)
	if e.Protocol == gen.Vless {
		params = append(params, "encryption=none")
	}
	params = append(params,
		"security="+security,
		"type=ws",
		"host="+e.Host,
		"path="+url.PathEscape(e.Path),
		"sni="+e.SNI,
	)

	return fmt.Sprintf("%s://%s@%s:%d?%s#%s",
		e.Protocol, e.Secret, e.Server, e.Port,
		strings.Join(params, "&"), url.PathEscape(name))
}

func shadowsocksURI(e gen.LinkParams, name string) string {
	userInfo := base64.StdEncoding.EncodeToString([]byte("none:" + e.Secret))

	segments := []string{"v2ray-plugin"}
	if e.TLS {
		segments = append(segments, "tls")
	}
	segments = append(segments,
		"mux=0",
		"mode=websocket",
		"path="+e.Path,
		"host="+e.Host,
	)
	plugin := url.QueryEscape(strings.Join(segments, ";"))

	return fmt.Sprintf("ss://%s@%s:%d?plugin=%s#%s",
		userInfo, e.Server, e.Port, plugin, url.PathEscape(name))
}

func init() {
	encode.Register("uri", func() encode.Encoder { return &Encoder{} })
}
