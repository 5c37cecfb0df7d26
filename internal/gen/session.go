package gen

import (
	"errors"
	"math/rand"
	"strings"

	"bugforge/internal/mask"
	"bugforge/internal/model"

	"github.com/google/uuid"
)

// Protocol tags the four link families the generator understands.
type Protocol string

const (
	Vmess       Protocol = "vmess"
	Vless       Protocol = "vless"
	Trojan      Protocol = "trojan"
	Shadowsocks Protocol = "shadowsocks"

	// Mix expands to all four protocols per proxy.
	Mix Protocol = "mix"
)

// AllProtocols is the expansion order of Mix. The order is observable:
// display-name numbering in the rendered output follows it.
var AllProtocols = []Protocol{Vmess, Vless, Trojan, Shadowsocks}

const (
	MinLimit = 1
	MaxLimit = 50

	DefaultPathTemplate = "/{ip}-{port}"
)

// ErrNoMatches means the country filter eliminated every proxy.
var ErrNoMatches = errors.New("no proxies match the requested filter")

// ClashOptions are extras consumed only by the clash encoder's full
// config variant.
type ClashOptions struct {
	FullConfig  bool
	FakeIP      bool
	AdBlock     bool
	PornBlock   bool
	BestPing    bool
	LoadBalance bool
	Fallback    bool
}

// Options is one immutable generation request.
type Options struct {
	Protocol     Protocol
	Format       string
	UUID         string
	BugType      mask.BugType
	MainDomain   string
	CustomBugs   string // comma separated bug hosts
	PathTemplate string
	TLS          bool

	CountryFilter string
	ValidOnly     bool
	Shuffle       bool
	Limit         int

	Clash ClashOptions
}

// LinkParams is the canonical per-link record both the synthesizer
// (forward path) and the link parser (reverse path) produce. One entry
// renders to exactly one outbound/URI in every encoder.
type LinkParams struct {
	Protocol Protocol
	Secret   string // uuid or password, per protocol
	TLS      bool

	Server string
	Host   string
	SNI    string
	Path   string
	Port   int

	Country  string
	Provider string
}

// Session threads one generation run through filtering, synthesis and
// encoding without any shared package state.
type Session struct {
	Proxies []model.Proxy
	Options Options
}

// NewSession normalizes the options: missing credentials get a fresh
// UUID, the limit is clamped to [1,50], the path template gets its
// default.
func NewSession(proxies []model.Proxy, opts Options) *Session {
	if opts.UUID == "" {
		opts.UUID = uuid.NewString()
	}
	if opts.PathTemplate == "" {
		opts.PathTemplate = DefaultPathTemplate
	}
	if opts.Limit < MinLimit {
		opts.Limit = MinLimit
	}
	if opts.Limit > MaxLimit {
		opts.Limit = MaxLimit
	}
	return &Session{Proxies: proxies, Options: opts}
}

// Filter applies the country filter, validity filter, optional shuffle
// and the limit cap, in that order.
func (s *Session) Filter() error {
	filtered := make([]model.Proxy, 0, len(s.Proxies))
	want := strings.ToUpper(strings.TrimSpace(s.Options.CountryFilter))
	for _, p := range s.Proxies {
		if s.Options.ValidOnly && !p.Valid {
			continue
		}
		if want != "" && strings.ToUpper(p.Country) != want {
			continue
		}
		filtered = append(filtered, p)
	}
	if len(filtered) == 0 {
		return ErrNoMatches
	}

	if s.Options.Shuffle {
		rand.Shuffle(len(filtered), func(i, j int) {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		})
	}
	if len(filtered) > s.Options.Limit {
		filtered = filtered[:s.Options.Limit]
	}

	s.Proxies = filtered
	return nil
}

// bugSet resolves the list of bug hosts one proxy is expanded over.
// Custom bugs only apply to the masking strategies that dial them.
func (s *Session) bugSet() []string {
	o := s.Options
	if o.BugType == mask.NonWildcard || o.BugType == mask.Wildcard {
		if raw := strings.TrimSpace(o.CustomBugs); raw != "" {
			var bugs []string
			for _, b := range strings.Split(raw, ",") {
				if b = strings.TrimSpace(b); b != "" {
					bugs = append(bugs, b)
				}
			}
			if len(bugs) > 0 {
				return bugs
			}
		}
	}
	return []string{o.MainDomain}
}

func (s *Session) protocolSet() []Protocol {
	if s.Options.Protocol == Mix {
		return AllProtocols
	}
	return []Protocol{s.Options.Protocol}
}

func expandPath(template, ip, port string) string {
	path := strings.ReplaceAll(template, "{ip}", ip)
	path = strings.ReplaceAll(path, "{port}", port)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// Synthesize produces the full cross-product proxies × bugs × protocols.
// Loop nesting is a contract: proxies outermost, bugs, then protocols,
// so numbering and grouping in the rendered output stay stable.
func (s *Session) Synthesize() []LinkParams {
	o := s.Options
	bugs := s.bugSet()
	protos := s.protocolSet()

	port := 80
	if o.TLS {
		port = 443
	}

	entries := make([]LinkParams, 0, len(s.Proxies)*len(bugs)*len(protos))
	for _, proxy := range s.Proxies {
		path := expandPath(o.PathTemplate, proxy.IP, proxy.Port)
		for _, bug := range bugs {
			triple := mask.Resolve(o.BugType, bug, o.MainDomain)
			for _, proto := range protos {
				entries = append(entries, LinkParams{
					Protocol: proto,
					Secret:   o.UUID,
					TLS:      o.TLS,
					Server:   triple.Server,
					Host:     triple.Host,
					SNI:      triple.SNI,
					Path:     path,
					Port:     port,
					Country:  proxy.Country,
					Provider: proxy.Provider,
				})
			}
		}
	}
	return entries
}
