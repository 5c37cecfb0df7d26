package ingest

import (
	"bufio"
	"errors"
	"strings"

	"bugforge/internal/geo"
	"bugforge/internal/model"
)

var (
	// ErrEmptySource means the input text contained no lines at all.
	ErrEmptySource = errors.New("proxy source is empty")
	// ErrNoProxies means lines existed but none parsed into a proxy.
	ErrNoProxies = errors.New("no parseable proxies in source")
)

const (
	DefaultCountry  = "Unknown"
	DefaultProvider = "Unknown Provider"
)

// sniffDelimiter inspects the first non-empty line. Checked in order:
// tab, pipe, semicolon; comma is the fallback. The winner applies to
// every line, there is no per-line re-detection.
func sniffDelimiter(raw string) string {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, d := range []string{"\t", "|", ";"} {
			if strings.Contains(line, d) {
				return d
			}
		}
		return ","
	}
	return ","
}

// Ingest turns a raw delimited proxy list into Proxy records.
// Unparseable lines are dropped, not errored; a line survives only if
// it splits into at least two non-empty fields (ip, port). Columns
// past the fourth are ignored.
func Ingest(raw string) ([]model.Proxy, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptySource
	}

	delim := sniffDelimiter(raw)

	var proxies []model.Proxy
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Split(line, delim)
		fields := make([]string, 0, 4)
		for _, part := range parts {
			fields = append(fields, strings.TrimSpace(part))
		}

		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			continue
		}

		p := model.Proxy{
			IP:       fields[0],
			Port:     fields[1],
			Country:  DefaultCountry,
			Provider: DefaultProvider,
		}
		if len(fields) > 2 && fields[2] != "" {
			p.Country = fields[2]
		}
		if len(fields) > 3 && fields[3] != "" {
			p.Provider = fields[3]
		}

		proxies = append(proxies, p)
	}

	if len(proxies) == 0 {
		return nil, ErrNoProxies
	}
	return proxies, nil
}

// FillCountries backfills missing country columns from the GeoIP
// database when one is loaded. Proxies with an explicit country keep it.
func FillCountries(proxies []model.Proxy) {
	for i := range proxies {
		if proxies[i].Country != DefaultCountry {
			continue
		}
		if code := geo.CountryCode(proxies[i].IP); code != "" {
			proxies[i].Country = code
		}
	}
}
