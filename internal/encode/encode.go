package encode

import (
	"fmt"
	"strings"

	"bugforge/internal/gen"
)

// Encoder renders a flat list of link parameters into one output
// document. Entries with a protocol tag the encoder does not recognize
// are skipped, never errored; per-item failures stay invisible and the
// caller decides what an empty result means.
type Encoder interface {
	Encode(entries []gen.LinkParams, opts gen.Options) (string, error)
}

type Factory func() Encoder

var registry = make(map[string]Factory)

func Register(name string, factory Factory) {
	registry[name] = factory
}

func Get(name string) (Encoder, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported output format '%s'", name)
	}
	return factory(), nil
}

// Formats lists the registered encoder names.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// Known reports whether a protocol tag belongs to the four families
// the encoders understand.
func Known(p gen.Protocol) bool {
	switch p {
	case gen.Vmess, gen.Vless, gen.Trojan, gen.Shadowsocks:
		return true
	}
	return false
}

// DisplayName builds the per-entry label. The index is 1-based and
// assigned over the flattened list at encode time.
func DisplayName(index int, e gen.LinkParams) string {
	tls := "NTLS"
	if e.TLS {
		tls = "TLS"
	}
	return fmt.Sprintf("[%d] (%s) %s [%s-%s]",
		index,
		strings.ToUpper(e.Country),
		e.Provider,
		strings.ToUpper(string(e.Protocol)),
		tls,
	)
}
