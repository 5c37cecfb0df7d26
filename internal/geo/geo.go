package geo

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

var (
	countryReader *geoip2.Reader
	once          sync.Once
	initErr       error
)

// Init loads the GeoLite2 Country mmdb. Optional: an empty path leaves
// the resolver disabled and CountryCode returns "".
func Init(countryPath string) error {
	once.Do(func() {
		if countryPath == "" {
			return
		}
		var err error
		countryReader, err = geoip2.Open(countryPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open country db at %s: %w", countryPath, err)
		}
	})
	return initErr
}

// CountryCode resolves an IP to its ISO country code, or "" when the
// database is unavailable or the lookup fails.
func CountryCode(ipStr string) string {
	if countryReader == nil {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	c, err := countryReader.Country(ip)
	if err != nil {
		return ""
	}
	return c.Country.IsoCode
}

func Close() {
	if countryReader != nil {
		_ = countryReader.Close()
	}
}
