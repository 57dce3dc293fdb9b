package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

// Location is the resolved place of an IP address. Empty fields mean unknown.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// GeoLocator resolves IP addresses to locations.
type GeoLocator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// ErrGeoDisabled is returned when no GeoIP database is loaded.
var ErrGeoDisabled = errors.New("geoip disabled")

var privateCIDRs = mustCIDRs(
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"100.64.0.0/10",
	"fc00::/7",
	"fe80::/10",
)

func mustCIDRs(blocks ...string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		if err != nil {
			panic(err)
		}
		out = append(out, n)
	}
	return out
}

// IsPrivateIP reports loopback, link-local and RFC1918/ULA addresses.
func IsPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	for _, n := range privateCIDRs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

type cityRecord struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
}

type cachedLocation struct {
	loc     Location
	expires time.Time
}

// MaxMindLocator reads a GeoLite2-City database. Results are cached in memory
// and, when available, in Redis.
type MaxMindLocator struct {
	db  *maxminddb.Reader
	ttl time.Duration

	mu    sync.Mutex
	cache map[string]cachedLocation
}

// OpenGeoIP opens the database at path. An empty path yields a locator that
// always answers ErrGeoDisabled.
func OpenGeoIP(path string) (*MaxMindLocator, error) {
	l := &MaxMindLocator{ttl: 24 * time.Hour, cache: make(map[string]cachedLocation)}
	if path == "" {
		return l, nil
	}
	db, err := maxminddb.Open(path)
	if err != nil {
		return l, fmt.Errorf("open geoip database: %w", err)
	}
	l.db = db
	return l, nil
}

// Locate resolves ip. Private addresses resolve to an empty location without error.
func (l *MaxMindLocator) Locate(ctx context.Context, ip string) (Location, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, fmt.Errorf("invalid ip %q", ip)
	}
	if IsPrivateIP(parsed) {
		return Location{}, nil
	}
	if l == nil || l.db == nil {
		return Location{}, ErrGeoDisabled
	}

	now := time.Now()
	l.mu.Lock()
	if c, ok := l.cache[ip]; ok && now.Before(c.expires) {
		l.mu.Unlock()
		return c.loc, nil
	}
	l.mu.Unlock()

	key := "geo:" + ip
	var loc Location
	if !CacheGetJSON(key, &loc) {
		var rec cityRecord
		if err := l.db.Lookup(parsed, &rec); err != nil {
			return Location{}, fmt.Errorf("geoip lookup: %w", err)
		}
		loc = Location{Country: rec.Country.Names["en"], City: rec.City.Names["en"]}
		if loc.Country == "" {
			loc.Country = rec.Country.ISOCode
		}
		CacheSetJSON(key, loc, l.ttl)
	}

	l.mu.Lock()
	if len(l.cache) > 10000 {
		l.cache = make(map[string]cachedLocation)
	}
	l.cache[ip] = cachedLocation{loc: loc, expires: now.Add(l.ttl)}
	l.mu.Unlock()
	return loc, nil
}

// Close releases the database.
func (l *MaxMindLocator) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}
