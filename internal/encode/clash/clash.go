// Package clash renders link parameters into Clash YAML, either as a
// bare provider document (proxies list only) or as a complete client
// config with dns, rules and proxy groups.
package clash

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"bugforge/internal/encode"
	"bugforge/internal/gen"
)

type Encoder struct{}

type wsOpts struct {
	Path    string            `yaml:"path"`
	Headers map[string]string `yaml:"headers,omitempty"`
}

type pluginOpts struct {
	Mode string `yaml:"mode"`
	TLS  bool   `yaml:"tls"`
	Host string `yaml:"host"`
	Path string `yaml:"path"`
	Mux  bool   `yaml:"mux"`
}

// proxyEntry covers all four protocols; field presence per protocol is
// controlled by omitempty, struct order fixes the YAML key order.
type proxyEntry struct {
	Name           string      `yaml:"name"`
	Type           string      `yaml:"type"`
	Server         string      `yaml:"server"`
	Port           int         `yaml:"port"`
	UUID           string      `yaml:"uuid,omitempty"`
	AlterID        *int        `yaml:"alterId,omitempty"`
	Cipher         string      `yaml:"cipher,omitempty"`
	Password       string      `yaml:"password,omitempty"`
	TLS            *bool       `yaml:"tls,omitempty"`
	SkipCertVerify *bool       `yaml:"skip-cert-verify,omitempty"`
	Servername     string      `yaml:"servername,omitempty"`
	SNI            string      `yaml:"sni,omitempty"`
	Network        string      `yaml:"network,omitempty"`
	WSOpts         *wsOpts     `yaml:"ws-opts,omitempty"`
	Plugin         string      `yaml:"plugin,omitempty"`
	PluginOpts     *pluginOpts `yaml:"plugin-opts,omitempty"`
}

type dnsConfig struct {
	Enable       bool     `yaml:"enable"`
	IPv6         bool     `yaml:"ipv6"`
	EnhancedMode string   `yaml:"enhanced-mode"`
	FakeIPRange  string   `yaml:"fake-ip-range,omitempty"`
	Nameserver   []string `yaml:"nameserver"`
	Fallback     []string `yaml:"fallback"`
}

type proxyGroup struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Proxies  []string `yaml:"proxies"`
	URL      string   `yaml:"url,omitempty"`
	Interval int      `yaml:"interval,omitempty"`
	Strategy string   `yaml:"strategy,omitempty"`
}

type ruleProvider struct {
	Type     string `yaml:"type"`
	Behavior string `yaml:"behavior"`
	URL      string `yaml:"url"`
	Path     string `yaml:"path"`
	Interval int    `yaml:"interval"`
}

type providerDoc struct {
	Proxies []proxyEntry `yaml:"proxies"`
}

type fullDoc struct {
	MixedPort     int                     `yaml:"mixed-port"`
	AllowLan      bool                    `yaml:"allow-lan"`
	Mode          string                  `yaml:"mode"`
	LogLevel      string                  `yaml:"log-level"`
	DNS           dnsConfig               `yaml:"dns"`
	Proxies       []proxyEntry            `yaml:"proxies"`
	ProxyGroups   []proxyGroup            `yaml:"proxy-groups"`
	RuleProviders map[string]ruleProvider `yaml:"rule-providers,omitempty"`
	Rules         []string                `yaml:"rules"`
}

const (
	adRulesURL   = "https://raw.githubusercontent.com/MetaCubeX/meta-rules-dat/meta/geo/geosite/category-ads-all.yaml"
	pornRulesURL = "https://raw.githubusercontent.com/MetaCubeX/meta-rules-dat/meta/geo/geosite/category-porn.yaml"
	healthURL    = "http://www.gstatic.com/generate_204"
)

func (e *Encoder) Encode(entries []gen.LinkParams, opts gen.Options) (string, error) {
	proxies := buildProxies(entries)

	header := fmt.Sprintf("# Generated by bugforge at %s\n",
		time.Now().Format("2006-01-02 15:04:05"))

	var doc interface{}
	if opts.Clash.FullConfig {
		doc = buildFullDoc(proxies, opts.Clash)
	} else {
		doc = providerDoc{Proxies: proxies}
	}

	body, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("clash yaml marshal: %w", err)
	}
	return header + string(body), nil
}

func buildProxies(entries []gen.LinkParams) []proxyEntry {
	proxies := make([]proxyEntry, 0, len(entries))
	index := 0
	for _, entry := range entries {
		if !encode.Known(entry.Protocol) {
			continue
		}
		index++
		name := encode.DisplayName(index, entry)

		if entry.Protocol == gen.Shadowsocks {
			proxies = append(proxies, proxyEntry{
				Name:     name,
				Type:     "ss",
				Server:   entry.Server,
				Port:     entry.Port,
				Cipher:   "none",
				Password: entry.Secret,
				Plugin:   "v2ray-plugin",
				PluginOpts: &pluginOpts{
					Mode: "websocket",
					TLS:  entry.TLS,
					Host: entry.Host,
					Path: entry.Path,
					Mux:  false,
				},
			})
			continue
		}

		tls := entry.TLS
		skip := true
		p := proxyEntry{
			Name:           name,
			Server:         entry.Server,
			Port:           entry.Port,
			TLS:            &tls,
			SkipCertVerify: &skip,
			Network:        "ws",
			WSOpts: &wsOpts{
				Path:    entry.Path,
				Headers: map[string]string{"Host": entry.Host},
			},
		}

		switch entry.Protocol {
		case gen.Vmess:
			alterID := 0
			p.Type = "vmess"
			p.UUID = entry.Secret
			p.AlterID = &alterID
			p.Cipher = "auto"
			p.Servername = entry.SNI
		case gen.Vless:
			p.Type = "vless"
			p.UUID = entry.Secret
			p.Servername = entry.SNI
		case gen.Trojan:
			p.Type = "trojan"
			p.Password = entry.Secret
			p.SNI = entry.SNI
		}
		proxies = append(proxies, p)
	}
	return proxies
}

func buildFullDoc(proxies []proxyEntry, opts gen.ClashOptions) fullDoc {
	names := make([]string, 0, len(proxies))
	for _, p := range proxies {
		names = append(names, p.Name)
	}

	dns := dnsConfig{
		Enable:       true,
		IPv6:         false,
		EnhancedMode: "redir-host",
		Nameserver:   []string{"8.8.8.8", "1.1.1.1"},
		Fallback:     []string{"https://dns.google/dns-query", "https://cloudflare-dns.com/dns-query"},
	}
	if opts.FakeIP {
		dns.EnhancedMode = "fake-ip"
		dns.FakeIPRange = "198.18.0.1/16"
	}

	// PROXY selector leads; helper groups are built only when asked for.
	selectorMembers := make([]string, 0, len(names)+3)
	groups := make([]proxyGroup, 0, 4)

	var helpers []proxyGroup
	if opts.BestPing {
		selectorMembers = append(selectorMembers, "Best Ping")
		helpers = append(helpers, proxyGroup{
			Name: "Best Ping", Type: "url-test", Proxies: names,
			URL: healthURL, Interval: 300,
		})
	}
	if opts.LoadBalance {
		selectorMembers = append(selectorMembers, "Load Balance")
		helpers = append(helpers, proxyGroup{
			Name: "Load Balance", Type: "load-balance", Proxies: names,
			URL: healthURL, Interval: 300, Strategy: "round-robin",
		})
	}
	if opts.Fallback {
		selectorMembers = append(selectorMembers, "Fallback")
		helpers = append(helpers, proxyGroup{
			Name: "Fallback", Type: "fallback", Proxies: names,
			URL: healthURL, Interval: 300,
		})
	}
	selectorMembers = append(selectorMembers, names...)

	groups = append(groups, proxyGroup{Name: "PROXY", Type: "select", Proxies: selectorMembers})
	groups = append(groups, helpers...)

	providers := make(map[string]ruleProvider)
	rules := []string{
		"IP-CIDR,192.168.0.0/16,DIRECT",
		"IP-CIDR,10.0.0.0/8,DIRECT",
		"IP-CIDR,172.16.0.0/12,DIRECT",
		"IP-CIDR,127.0.0.0/8,DIRECT",
	}
	if opts.AdBlock {
		providers["ad-block"] = ruleProvider{
			Type: "http", Behavior: "domain", URL: adRulesURL,
			Path: "./rule_provider/ad-block.yaml", Interval: 86400,
		}
		rules = append(rules, "RULE-SET,ad-block,REJECT")
	}
	if opts.PornBlock {
		providers["porn-block"] = ruleProvider{
			Type: "http", Behavior: "domain", URL: pornRulesURL,
			Path: "./rule_provider/porn-block.yaml", Interval: 86400,
		}
		rules = append(rules, "RULE-SET,porn-block,REJECT")
	}
	rules = append(rules, "MATCH,PROXY")

	if len(providers) == 0 {
		providers = nil
	}

	return fullDoc{
		MixedPort:     7890,
		AllowLan:      true,
		Mode:          "rule",
		LogLevel:      "info",
		DNS:           dns,
		Proxies:       proxies,
		ProxyGroups:   groups,
		RuleProviders: providers,
		Rules:         rules,
	}
}

func init() {
	encode.Register("clash", func() encode.Encoder { return &Encoder{} })
}
