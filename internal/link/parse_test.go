package link

import (
	"encoding/base64"
	"testing"

	"bugforge/internal/encode/uri"
	"bugforge/internal/gen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_UnsupportedProtocol(t *testing.T) {
	for _, raw := range []string{
		"hysteria2://x@h:443",
		"socks://u:p@h:1080",
		"not a link at all",
	} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrUnsupportedProtocol, raw)
	}
}

func TestParse_VlessRoundTrip(t *testing.T) {
	entry := gen.LinkParams{
		Protocol: gen.Vless,
		Secret:   "u-1",
		TLS:      true,
		Server:   "x.example",
		Host:     "host.example",
		SNI:      "sni.example",
		Path:     "/1.2.3.4-443",
		Port:     443,
		Country:  "SG",
		Provider: "Acme",
	}
	out, err := (&uri.Encoder{}).Encode([]gen.LinkParams{entry}, gen.Options{})
	require.NoError(t, err)

	p, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, gen.Vless, p.Protocol)
	assert.Equal(t, "u-1", p.UUID)
	assert.Equal(t, "x.example", p.Server)
	assert.Equal(t, 443, p.Port)
	assert.True(t, p.TLS)
	assert.Equal(t, "host.example", p.WSHost)
	assert.Equal(t, "/1.2.3.4-443", p.WSPath, "path must decode from its url-encoded form exactly")
	assert.Equal(t, "sni.example", p.SNI)
	assert.Equal(t, "ws", p.Network)
	assert.Equal(t, "[1] (SG) Acme [VLESS-TLS]", p.Remark)
}

func TestParse_VlessTLSDefaultsFalse(t *testing.T) {
	p, err := Parse("vless://u-1@h.example:80?type=ws&host=h.example&path=%2Fx")
	require.NoError(t, err)
	assert.False(t, p.TLS)
}

// Trojan links default to TLS when the security parameter is missing;
// vless does not. The asymmetry is intentional, see TestParse_VlessTLSDefaultsFalse.
func TestParse_TrojanTLSQuirk(t *testing.T) {
	p, err := Parse("trojan://pw@h.example:443?type=ws&host=h.example")
	require.NoError(t, err)
	assert.True(t, p.TLS, "absent security parameter means TLS for trojan")
	assert.Equal(t, "pw", p.Password)

	p, err = Parse("trojan://pw@h.example:80?security=none")
	require.NoError(t, err)
	assert.False(t, p.TLS, "an explicit non-tls value is honored")
}

func TestParse_SNIFallbackChain(t *testing.T) {
	p, err := Parse("vless://u@h.example:443?security=tls&sni=sni.example&host=host.example")
	require.NoError(t, err)
	assert.Equal(t, "sni.example", p.SNI)

	p, err = Parse("vless://u@h.example:443?security=tls&host=host.example")
	require.NoError(t, err)
	assert.Equal(t, "host.example", p.SNI)

	p, err = Parse("vless://u@h.example:443?security=tls")
	require.NoError(t, err)
	assert.Equal(t, "h.example", p.SNI)
}

func vmessB64(payload string) string {
	return "vmess://" + base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestParse_Vmess(t *testing.T) {
	raw := vmessB64(`{"v":"2","ps":"node","add":"x.example","port":"443","id":"u-1","aid":"0","scy":"zero","net":"ws","host":"h.example","path":"/p","tls":"tls","sni":"s.example"}`)
	p, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, gen.Vmess, p.Protocol)
	assert.Equal(t, "node", p.Remark)
	assert.Equal(t, "x.example", p.Server)
	assert.Equal(t, 443, p.Port)
	assert.Equal(t, "u-1", p.UUID)
	assert.Equal(t, "0", p.AlterID)
	assert.Equal(t, "zero", p.Security)
	assert.True(t, p.TLS)
	assert.Equal(t, "s.example", p.SNI)
}

func TestParse_VmessDefaultsAndFallbacks(t *testing.T) {
	// aid and scy missing, sni missing: aid->0, scy->auto, sni->host.
	raw := vmessB64(`{"v":"2","add":"x.example","port":443,"id":"u-1","net":"ws","host":"h.example","path":"/p","tls":""}`)
	p, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "0", p.AlterID)
	assert.Equal(t, "auto", p.Security)
	assert.False(t, p.TLS)
	assert.Equal(t, "h.example", p.SNI)

	// No host either: sni falls back to the address.
	raw = vmessB64(`{"add":"x.example","port":443,"id":"u-1"}`)
	p, err = Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "x.example", p.SNI)
}

func TestParse_VmessGarbage(t *testing.T) {
	_, err := Parse("vmess://!!!not-base64!!!")
	assert.Error(t, err)

	_, err = Parse(vmessB64("not json"))
	assert.Error(t, err)
}

func TestParse_Shadowsocks(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte("none:pw-1"))
	raw := "ss://" + user + "@x.example:443?plugin=v2ray-plugin%3Btls%3Bmux%3D0%3Bmode%3Dwebsocket%3Bpath%3D%2Fp%3Bhost%3Dh.example#node"
	p, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, gen.Shadowsocks, p.Protocol)
	assert.Equal(t, "none", p.Cipher)
	assert.Equal(t, "pw-1", p.Password)
	assert.True(t, p.TLS)
	assert.Equal(t, "ws", p.Network)
	assert.Equal(t, "/p", p.WSPath)
	assert.Equal(t, "h.example", p.WSHost)
	assert.Equal(t, "node", p.Remark)
}

func TestParse_ShadowsocksPluginInference(t *testing.T) {
	user := base64.StdEncoding.EncodeToString([]byte("aes-128-gcm:pw"))

	// No tls marker, no websocket marker.
	p, err := Parse("ss://" + user + "@x.example:8388?plugin=obfs-local%3Bobfs%3Dhttp")
	require.NoError(t, err)
	assert.False(t, p.TLS)
	assert.Equal(t, "tcp", p.Network)
	assert.Equal(t, "aes-128-gcm", p.Cipher)

	// Missing separator in userinfo is a hard error.
	bad := base64.StdEncoding.EncodeToString([]byte("no-separator"))
	_, err = Parse("ss://" + bad + "@x.example:8388")
	assert.Error(t, err)
}

func TestParse_ShadowsocksRoundTrip(t *testing.T) {
	entry := gen.LinkParams{
		Protocol: gen.Shadowsocks,
		Secret:   "pw-1",
		TLS:      true,
		Server:   "x.example",
		Host:     "h.example",
		SNI:      "h.example",
		Path:     "/1.2.3.4-443",
		Port:     443,
		Country:  "SG",
		Provider: "Acme",
	}
	out, err := (&uri.Encoder{}).Encode([]gen.LinkParams{entry}, gen.Options{})
	require.NoError(t, err)

	p, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "none", p.Cipher)
	assert.Equal(t, "pw-1", p.Password)
	assert.True(t, p.TLS)
	assert.Equal(t, "ws", p.Network)
	assert.Equal(t, "/1.2.3.4-443", p.WSPath)
	assert.Equal(t, "h.example", p.WSHost)
}

func TestApplyMask_NonWildcard(t *testing.T) {
	p := &ParsedLink{Server: "x.example", SNI: "sni.example", WSHost: "host.example"}
	ApplyMask(p, "bug.io", false)
	assert.Equal(t, "bug.io", p.Server)
	assert.Equal(t, "sni.example", p.SNI, "non-wildcard leaves SNI untouched")
	assert.Equal(t, "host.example", p.WSHost)
}

func TestApplyMask_Wildcard(t *testing.T) {
	p := &ParsedLink{Server: "x.example", SNI: "sni.example", WSHost: "host.example"}
	ApplyMask(p, "bug.io", true)
	assert.Equal(t, "bug.io", p.Server)
	assert.Equal(t, "bug.io.sni.example", p.SNI)
	assert.Equal(t, "bug.io.sni.example", p.WSHost)
}

func TestApplyMask_EmptyServerIsNoop(t *testing.T) {
	p := &ParsedLink{Server: "x.example", SNI: "sni.example"}
	ApplyMask(p, "", true)
	assert.Equal(t, "x.example", p.Server)
	assert.Equal(t, "sni.example", p.SNI)
}

func TestParams_Conversion(t *testing.T) {
	p := &ParsedLink{
		Protocol: gen.Trojan,
		Remark:   "my node",
		Server:   "x.example",
		Port:     443,
		Password: "pw",
		TLS:      true,
		SNI:      "s.example",
		WSHost:   "h.example",
	}
	params := p.Params()
	assert.Equal(t, gen.Trojan, params.Protocol)
	assert.Equal(t, "pw", params.Secret)
	assert.Equal(t, "/", params.Path, "missing ws path defaults to /")
	assert.Equal(t, "my node", params.Provider)
	assert.Equal(t, "Unknown", params.Country)
}
