package geoip

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/oschwald/maxminddb-golang"
)

// Resolver maps client addresses to ISO country codes. A zero Resolver
// resolves nothing.
type Resolver struct {
	db *maxminddb.Reader
}

type geoResult struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

func New(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := maxminddb.Open(dbPath)
	if err != nil {
		slog.Warn("geoip: failed to open database, geolocation disabled", "path", dbPath, "error", err)
		return &Resolver{}, nil
	}
	slog.Info("geoip: loaded database", "path", dbPath)
	return &Resolver{db: db}, nil
}

func (r *Resolver) Country(ipStr string) string {
	if r == nil || r.db == nil || ipStr == "" {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}
	var result geoResult
	if err := r.db.Lookup(ip, &result); err != nil {
		return ""
	}
	return result.Country.ISOCode
}

func (r *Resolver) Close() error {
	if r != nil && r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ClientIP returns the originating client address. X-Forwarded-For is only
// honored when the peer is a private or loopback address (a reverse proxy),
// and then the rightmost hop that is not itself a proxy is used.
func ClientIP(r *http.Request) string {
	peer := remoteHost(r.RemoteAddr)
	if !isProxy(peer) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			continue
		}
		if !isProxyAddr(addr) {
			return addr.String()
		}
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isProxy(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	return err == nil && isProxyAddr(addr)
}

func isProxyAddr(addr netip.Addr) bool {
	return addr.IsLoopback() || addr.IsPrivate()
}
