package uri

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"bugforge/internal/gen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vlessEntry() gen.LinkParams {
	return gen.LinkParams{
		Protocol: gen.Vless,
		Secret:   "u-1",
		TLS:      true,
		Server:   "x.example",
		Host:     "x.example",
		SNI:      "x.example",
		Path:     "/1.2.3.4-443",
		Port:     443,
		Country:  "SG",
		Provider: "Acme",
	}
}

func TestEncode_VlessScenario(t *testing.T) {
	out, err := (&Encoder{}).Encode([]gen.LinkParams{vlessEntry()}, gen.Options{})
	require.NoError(t, err)

	want := "vless://u-1@x.example:443" +
		"?encryption=none&security=tls&type=ws&host=x.example" +
		"&path=%2F1.2.3.4-443&sni=x.example" +
		"#%5B1%5D%20%28SG%29%20Acme%20%5BVLESS-TLS%5D"
	assert.Equal(t, want, out)
}

func TestEncode_TrojanHasNoEncryptionParam(t *testing.T) {
	e := vlessEntry()
	e.Protocol = gen.Trojan
	out, err := (&Encoder{}).Encode([]gen.LinkParams{e}, gen.Options{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "trojan://u-1@x.example:443?security=tls&"))
	assert.NotContains(t, out, "encryption=")
}

func TestEncode_NoTLSUsesNoneSecurity(t *testing.T) {
	e := vlessEntry()
	e.TLS = false
	e.Port = 80
	out, err := (&Encoder{}).Encode([]gen.LinkParams{e}, gen.Options{})
	require.NoError(t, err)
	assert.Contains(t, out, ":80?encryption=none&security=none&")
	assert.Contains(t, out, "VLESS-NTLS")
}

func TestEncode_VmessPayload(t *testing.T) {
	e := vlessEntry()
	e.Protocol = gen.Vmess
	out, err := (&Encoder{}).Encode([]gen.LinkParams{e}, gen.Options{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "vmess://"))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(out, "vmess://"))
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded, &payload))

	assert.Equal(t, "2", payload["v"])
	assert.Equal(t, "x.example", payload["add"])
	assert.Equal(t, float64(443), payload["port"])
	assert.Equal(t, "u-1", payload["id"])
	assert.Equal(t, "0", payload["aid"])
	assert.Equal(t, "zero", payload["scy"])
	assert.Equal(t, "ws", payload["net"])
	assert.Equal(t, "none", payload["type"])
	assert.Equal(t, "tls", payload["tls"])
	assert.Equal(t, "x.example", payload["sni"])
	assert.Equal(t, "/1.2.3.4-443", payload["path"])
	assert.Equal(t, "[1] (SG) Acme [VMESS-TLS]", payload["ps"])
}

func TestEncode_ShadowsocksUserinfoAndPlugin(t *testing.T) {
	e := vlessEntry()
	e.Protocol = gen.Shadowsocks
	out, err := (&Encoder{}).Encode([]gen.LinkParams{e}, gen.Options{})
	require.NoError(t, err)

	wantUser := base64.StdEncoding.EncodeToString([]byte("none:u-1"))
	assert.True(t, strings.HasPrefix(out, "ss://"+wantUser+"@x.example:443?plugin="))
	assert.Contains(t, out, "v2ray-plugin%3Btls%3Bmux%3D0%3Bmode%3Dwebsocket")
	assert.Contains(t, out, "path%3D%2F1.2.3.4-443")
	assert.Contains(t, out, "host%3Dx.example")
}

func TestEncode_ShadowsocksNoTLSOmitsTLSSegment(t *testing.T) {
	e := vlessEntry()
	e.Protocol = gen.Shadowsocks
	e.TLS = false
	out, err := (&Encoder{}).Encode([]gen.LinkParams{e}, gen.Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, "%3Btls%3B")
}

func TestEncode_UnknownProtocolSkipped(t *testing.T) {
	bogus := vlessEntry()
	bogus.Protocol = gen.Protocol("socks")
	out, err := (&Encoder{}).Encode([]gen.LinkParams{bogus, vlessEntry()}, gen.Options{})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 1)
	// Numbering restarts over the surviving entries.
	assert.Contains(t, lines[0], "%5B1%5D")
}

func TestEncode_EmptyList(t *testing.T) {
	out, err := (&Encoder{}).Encode(nil, gen.Options{})
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestEncode_MultipleEntriesNewlineJoined(t *testing.T) {
	a := vlessEntry()
	b := vlessEntry()
	b.Protocol = gen.Trojan
	out, err := (&Encoder{}).Encode([]gen.LinkParams{a, b}, gen.Options{})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "vless://"))
	assert.True(t, strings.HasPrefix(lines[1], "trojan://"))
	assert.Contains(t, lines[1], "%5B2%5D")
}
