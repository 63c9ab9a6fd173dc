package websocket

import (
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OriginValidator decides whether a browser origin may open a connection.
type OriginValidator interface {
	IsAllowedOrigin(origin string) bool
}

// AllowedOrigins accepts a fixed set of origins. With an empty set only
// loopback origins are accepted.
type AllowedOrigins struct {
	origins map[string]bool
}

// NewAllowedOrigins builds a validator from absolute origin URLs. Entries
// that do not parse are ignored; config validation reports them.
func NewAllowedOrigins(origins []string) *AllowedOrigins {
	a := &AllowedOrigins{origins: make(map[string]bool, len(origins))}
	for _, origin := range origins {
		if normalized, ok := normalizeOrigin(origin); ok {
			a.origins[normalized] = true
		}
	}
	return a
}

// IsAllowedOrigin implements OriginValidator.
func (a *AllowedOrigins) IsAllowedOrigin(origin string) bool {
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	if len(a.origins) == 0 {
		u, _ := url.Parse(normalized)
		return isLoopback(u.Hostname())
	}
	return a.origins[normalized]
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return "", false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Limits bounds connections and message rates.
type Limits struct {
	// MaxConnectionsPerIP caps concurrent connections from one address.
	// Zero disables the cap.
	MaxConnectionsPerIP int
	// MessagesPerSecond and Burst configure each client's token bucket.
	// A zero rate disables message limiting.
	MessagesPerSecond float64
	Burst             int
	// SendBuffer is the number of outbound messages queued per client.
	SendBuffer int

	// Reads wait without a deadline; a ping unanswered within WriteTimeout
	// closes the client.
	WriteTimeout time.Duration
	PingInterval time.Duration
}

// DefaultLimits returns the limits used by the preview server.
func DefaultLimits() Limits {
	return Limits{
		MaxConnectionsPerIP: 20,
		MessagesPerSecond:   20,
		Burst:               40,
		SendBuffer:          256,
		WriteTimeout:        10 * time.Second,
		PingInterval:        54 * time.Second,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.SendBuffer <= 0 {
		l.SendBuffer = d.SendBuffer
	}
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = d.WriteTimeout
	}
	if l.PingInterval <= 0 {
		l.PingInterval = d.PingInterval
	}
	return l
}

// newRateLimiter returns a token bucket for one client, or nil when message
// limiting is disabled.
func (l Limits) newRateLimiter() RateLimiter {
	if l.MessagesPerSecond <= 0 {
		return nil
	}
	burst := l.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(l.MessagesPerSecond), burst)
}

// ipTracker counts live connections per remote address.
type ipTracker struct {
	max    int
	mutex  sync.Mutex
	counts map[string]int
}

func newIPTracker(max int) *ipTracker {
	return &ipTracker{max: max, counts: make(map[string]int)}
}

// acquire reserves a connection slot for ip.
func (t *ipTracker) acquire(ip string) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.max > 0 && t.counts[ip] >= t.max {
		return false
	}
	t.counts[ip]++
	return true
}

func (t *ipTracker) release(ip string) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	if t.counts[ip] <= 1 {
		delete(t.counts, ip)
		return
	}
	t.counts[ip]--
}

func (t *ipTracker) count(ip string) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.counts[ip]
}

// clientIP returns the host part of the request's remote address.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
