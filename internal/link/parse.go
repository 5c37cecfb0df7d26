package link

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bugforge/internal/gen"
)

// vmessJSON mirrors the v2rayN share payload. Port and aid arrive as
// either strings or numbers in the wild.
type vmessJSON struct {
	Ps   string      `json:"ps"`
	Add  string      `json:"add"`
	Port interface{} `json:"port"`
	ID   string      `json:"id"`
	Aid  interface{} `json:"aid"`
	Scy  string      `json:"scy"`
	Net  string      `json:"net"`
	Host string      `json:"host"`
	Path string      `json:"path"`
	TLS  string      `json:"tls"`
	SNI  string      `json:"sni"`
}

func parseVMess(raw string) (*ParsedLink, error) {
	b64 := strings.TrimPrefix(raw, "vmess://")
	jsonStr, err := decodeBase64(b64)
	if err != nil {
		return nil, fmt.Errorf("vmess base64 decode: %w", err)
	}

	var v vmessJSON
	if err := json.Unmarshal([]byte(jsonStr), &v); err != nil {
		return nil, fmt.Errorf("vmess json decode: %w", err)
	}

	p := &ParsedLink{
		Protocol: gen.Vmess,
		Remark:   v.Ps,
		Server:   v.Add,
		UUID:     v.ID,
		AlterID:  fmt.Sprintf("%v", v.Aid),
		Security: v.Scy,
		TLS:      v.TLS == "tls",
		Network:  v.Net,
		WSHost:   v.Host,
		WSPath:   v.Path,
		SNI:      v.SNI,
	}
	p.Port, _ = strconv.Atoi(fmt.Sprintf("%v", v.Port))

	if v.Aid == nil {
		p.AlterID = "0"
	}
	if p.Security == "" {
		p.Security = "auto"
	}
	// SNI fallback chain: explicit sni, then ws host, then address.
	if p.SNI == "" {
		p.SNI = p.WSHost
	}
	if p.SNI == "" {
		p.SNI = p.Server
	}

	return p, nil
}

// parseQueryLink covers vless and trojan. The two differ in which
// secret field the userinfo feeds and in their TLS default: an absent
// security parameter means plaintext for vless but TLS for trojan.
// The asymmetry is deliberate, matching how clients in the wild treat
// bare trojan links.
func parseQueryLink(raw string, proto gen.Protocol) (*ParsedLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s uri parse: %w", proto, err)
	}

	p := &ParsedLink{
		Protocol: proto,
		Remark:   u.Fragment,
		Server:   u.Hostname(),
	}
	p.Port, _ = strconv.Atoi(u.Port())

	secret := u.User.String()
	if proto == gen.Vless {
		p.UUID = secret
	} else {
		p.Password = secret
	}

	q := u.Query()
	security := q.Get("security")
	if proto == gen.Trojan && security == "" {
		p.TLS = true
	} else {
		p.TLS = security == "tls"
	}

	p.Network = q.Get("type")
	p.WSHost = q.Get("host")
	p.WSPath = q.Get("path")

	// SNI fallback chain: explicit sni, then host header, then hostname.
	p.SNI = q.Get("sni")
	if p.SNI == "" {
		p.SNI = p.WSHost
	}
	if p.SNI == "" {
		p.SNI = p.Server
	}

	return p, nil
}

func parseShadowsocks(raw string) (*ParsedLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("shadowsocks uri parse: %w", err)
	}

	p := &ParsedLink{
		Protocol: gen.Shadowsocks,
		Remark:   u.Fragment,
		Server:   u.Hostname(),
	}
	p.Port, _ = strconv.Atoi(u.Port())

	userInfo, err := decodeBase64(u.User.String())
	if err != nil {
		return nil, fmt.Errorf("shadowsocks userinfo decode: %w", err)
	}
	cipher, password, ok := strings.Cut(userInfo, ":")
	if !ok {
		return nil, fmt.Errorf("shadowsocks userinfo missing cipher separator")
	}
	p.Cipher = cipher
	p.Password = password

	// Plugin options are matched leniently: substring checks for the
	// tls/websocket markers, prefix scans for path and host. Plugin
	// strings in circulating links are too inconsistent for strict
	// structured parsing.
	plugin := u.Query().Get("plugin")
	p.TLS = strings.Contains(plugin, "tls")
	if strings.Contains(plugin, "websocket") {
		p.Network = "ws"
	} else {
		p.Network = "tcp"
	}
	for _, segment := range strings.Split(plugin, ";") {
		if v, ok := strings.CutPrefix(segment, "path="); ok {
			p.WSPath = v
		}
		if v, ok := strings.CutPrefix(segment, "host="); ok {
			p.WSHost = v
		}
	}

	if p.SNI == "" {
		p.SNI = p.WSHost
	}
	if p.SNI == "" {
		p.SNI = p.Server
	}

	return p, nil
}
