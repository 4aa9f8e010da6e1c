// Package geo resolves click-through IPs to countries for analytics
// enrichment. Lookups are best-effort: an unresolvable IP yields an
// empty country, never an error surfaced to the redirect path.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// Provider resolves an IP address to an ISO country code.
type Provider interface {
	Country(ip string) string
}

// MaxMindProvider reads a MaxMind GeoLite2 database. The reader is safe
// for concurrent lookups.
type MaxMindProvider struct {
	reader *maxminddb.Reader
}

// NewMaxMindProvider opens the GeoLite2 database at the given path.
func NewMaxMindProvider(dbPath string) (*MaxMindProvider, error) {
	reader, err := maxminddb.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindProvider{reader: reader}, nil
}

// Country returns the ISO 3166-1 code for the IP, or "" when the IP is
// invalid or unknown.
func (p *MaxMindProvider) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	var record struct {
		Country struct {
			ISOCode string `maxminddb:"iso_code"`
		} `maxminddb:"country"`
	}
	if err := p.reader.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Close releases the database reader.
func (p *MaxMindProvider) Close() error {
	if p.reader != nil {
		return p.reader.Close()
	}
	return nil
}
