package enrichment

import (
	"net"

	geoip2 "github.com/oschwald/geoip2-golang"
)

// UnknownCountry is recorded when no country can be resolved for an IP.
const UnknownCountry = "XX"

// CountryResolver maps an IP address to an ISO 3166-1 country code.
type CountryResolver interface {
	ResolveCountry(ip string) string
}

// GeoIPResolver resolves countries against a local MaxMind database.
type GeoIPResolver struct {
	db *geoip2.Reader
}

// NewGeoIPResolver opens the GeoIP2 database at the given path.
func NewGeoIPResolver(dbPath string) (*GeoIPResolver, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &GeoIPResolver{db: db}, nil
}

func (g *GeoIPResolver) Close() error {
	return g.db.Close()
}

// ResolveCountry returns the ISO country code for the given IP, or
// UnknownCountry for private, invalid or unresolvable addresses.
func (g *GeoIPResolver) ResolveCountry(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return UnknownCountry
	}

	record, err := g.db.Country(ip)
	if err != nil || record.Country.IsoCode == "" {
		return UnknownCountry
	}

	return record.Country.IsoCode
}

// NoopCountryResolver is used when no GeoIP database is configured.
type NoopCountryResolver struct{}

func (NoopCountryResolver) ResolveCountry(string) string { return UnknownCountry }
