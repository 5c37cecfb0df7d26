package gen

import (
	"testing"

	"bugforge/internal/mask"
	"bugforge/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProxies() []model.Proxy {
	return []model.Proxy{
		{IP: "1.2.3.4", Port: "443", Country: "SG", Provider: "Acme"},
		{IP: "5.6.7.8", Port: "80", Country: "US", Provider: "Widgets"},
	}
}

func TestNewSession_Normalization(t *testing.T) {
	s := NewSession(nil, Options{})
	assert.NotEmpty(t, s.Options.UUID, "missing uuid must be generated")
	assert.Equal(t, DefaultPathTemplate, s.Options.PathTemplate)
	assert.Equal(t, MinLimit, s.Options.Limit)

	s = NewSession(nil, Options{Limit: 100})
	assert.Equal(t, MaxLimit, s.Options.Limit)

	s = NewSession(nil, Options{UUID: "u-1", Limit: 7})
	assert.Equal(t, "u-1", s.Options.UUID)
	assert.Equal(t, 7, s.Options.Limit)
}

func TestSynthesize_CrossProductSize(t *testing.T) {
	s := NewSession(testProxies(), Options{
		Protocol:   Mix,
		BugType:    mask.Wildcard,
		MainDomain: "example.com",
		CustomBugs: "bug.io, cdn.net ,",
		TLS:        true,
		Limit:      50,
	})
	entries := s.Synthesize()
	// 2 proxies x 2 bugs x 4 protocols
	require.Len(t, entries, 16)
}

func TestSynthesize_Ordering(t *testing.T) {
	s := NewSession(testProxies(), Options{
		Protocol:   Mix,
		BugType:    mask.Wildcard,
		MainDomain: "example.com",
		CustomBugs: "bug.io,cdn.net",
		TLS:        true,
		Limit:      50,
	})
	entries := s.Synthesize()

	// Inner loop: protocols cycle fastest.
	assert.Equal(t, Vmess, entries[0].Protocol)
	assert.Equal(t, Vless, entries[1].Protocol)
	assert.Equal(t, Trojan, entries[2].Protocol)
	assert.Equal(t, Shadowsocks, entries[3].Protocol)

	// Middle loop: bug changes after a full protocol cycle.
	assert.Equal(t, "bug.io", entries[0].Server)
	assert.Equal(t, "cdn.net", entries[4].Server)

	// Outer loop: proxy changes after all bugs.
	assert.Equal(t, "SG", entries[0].Country)
	assert.Equal(t, "US", entries[8].Country)
}

func TestSynthesize_DefaultBugTypeIgnoresCustomBugs(t *testing.T) {
	s := NewSession(testProxies(), Options{
		Protocol:   Vless,
		BugType:    mask.Default,
		MainDomain: "example.com",
		CustomBugs: "bug.io,cdn.net",
		TLS:        true,
		Limit:      50,
	})
	entries := s.Synthesize()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "example.com", e.Server)
		assert.Equal(t, "example.com", e.SNI)
	}
}

func TestSynthesize_EmptyCustomBugsFallsBackToMainDomain(t *testing.T) {
	s := NewSession(testProxies()[:1], Options{
		Protocol:   Trojan,
		BugType:    mask.NonWildcard,
		MainDomain: "example.com",
		CustomBugs: "  ",
		TLS:        true,
		Limit:      50,
	})
	entries := s.Synthesize()
	require.Len(t, entries, 1)
	assert.Equal(t, "example.com", entries[0].Server)
}

func TestSynthesize_PathAndPort(t *testing.T) {
	s := NewSession(testProxies(), Options{
		Protocol:   Vless,
		MainDomain: "example.com",
		TLS:        true,
		Limit:      50,
	})
	entries := s.Synthesize()
	assert.Equal(t, "/1.2.3.4-443", entries[0].Path)
	assert.Equal(t, 443, entries[0].Port)

	s = NewSession(testProxies(), Options{
		Protocol:     Vless,
		MainDomain:   "example.com",
		PathTemplate: "ws/{ip}/{port}",
		TLS:          false,
		Limit:        50,
	})
	entries = s.Synthesize()
	assert.Equal(t, "/ws/1.2.3.4/443", entries[0].Path, "leading slash is forced")
	assert.Equal(t, 80, entries[0].Port)
}

func TestFilter_Country(t *testing.T) {
	s := NewSession(testProxies(), Options{CountryFilter: "sg", Limit: 50})
	require.NoError(t, s.Filter())
	require.Len(t, s.Proxies, 1)
	assert.Equal(t, "SG", s.Proxies[0].Country)
}

func TestFilter_NoMatches(t *testing.T) {
	s := NewSession(testProxies(), Options{CountryFilter: "DE", Limit: 50})
	assert.ErrorIs(t, s.Filter(), ErrNoMatches)
}

func TestFilter_ValidOnlyAndLimit(t *testing.T) {
	proxies := testProxies()
	proxies[0].Valid = true
	proxies[1].Valid = true
	s := NewSession(proxies, Options{ValidOnly: true, Limit: 1})
	require.NoError(t, s.Filter())
	assert.Len(t, s.Proxies, 1)

	s = NewSession(testProxies(), Options{ValidOnly: true, Limit: 10})
	assert.ErrorIs(t, s.Filter(), ErrNoMatches)
}
