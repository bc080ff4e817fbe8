package security

import (
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"

	"compras/internal/log"
)

// maxURLLength is the longest request URL served without being flagged.
// Filter links carry at most four short parameters plus a spec id.
const maxURLLength = 2048

var defaultTrustedProxies = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

var (
	probeFragments = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "wp-login", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"<script", "javascript:", "eval(", "union select",
	}
	scannerAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "scanner",
	}
	probeMethods = map[string]bool{
		"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true,
	}
)

// rule reports why a request looks like a probe, or "" when it does not.
type rule func(r *http.Request) string

var rules = []rule{
	func(r *http.Request) string {
		if f := containsAny(strings.ToLower(r.URL.Path), probeFragments); f != "" {
			return "path contains " + f
		}
		return ""
	},
	func(r *http.Request) string {
		query, err := url.QueryUnescape(r.URL.RawQuery)
		if err != nil {
			query = strings.ReplaceAll(r.URL.RawQuery, "+", " ")
		}
		if f := containsAny(strings.ToLower(query), probeFragments); f != "" {
			return "query contains " + f
		}
		return ""
	},
	func(r *http.Request) string {
		if a := containsAny(strings.ToLower(r.UserAgent()), scannerAgents); a != "" {
			return "scanner user agent " + a
		}
		return ""
	},
	func(r *http.Request) string {
		if probeMethods[r.Method] {
			return "method " + r.Method
		}
		return ""
	},
	func(r *http.Request) string {
		if n := len(r.URL.String()); n > maxURLLength {
			return fmt.Sprintf("url length %d", n)
		}
		return ""
	},
	func(r *http.Request) string {
		if hops := strings.Count(r.Header.Get("X-Forwarded-For"), ","); hops > 5 {
			return fmt.Sprintf("%d forwarding hops", hops+1)
		}
		return ""
	},
}

func containsAny(s string, needles []string) string {
	if s == "" {
		return ""
	}
	for _, n := range needles {
		if strings.Contains(s, n) {
			return n
		}
	}
	return ""
}

// DetectionMetrics counts detector events
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector resolves client addresses behind trusted proxies and flags
// requests that look like vulnerability scans.
type Detector struct {
	suspicious atomic.Int64
	invalidIP  atomic.Int64
	trusted    []netip.Prefix
}

// NewDetector trusts forwarding headers from loopback and private networks
// plus the given CIDRs.
func NewDetector(extra ...string) (*Detector, error) {
	d := &Detector{}
	for _, cidr := range append(append([]string(nil), defaultTrustedProxies...), extra...) {
		p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		d.trusted = append(d.trusted, p.Masked())
	}
	return d, nil
}

// Inspect returns the reason a request looks like a probe, or "".
func (d *Detector) Inspect(r *http.Request) string {
	for _, check := range rules {
		if reason := check(r); reason != "" {
			d.suspicious.Add(1)
			return reason
		}
	}
	return ""
}

// DetectSuspiciousRequest reports whether Inspect found anything.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	return d.Inspect(r) != ""
}

// ExtractClientIP returns the peer address, or the first forwarded address
// when the peer is a trusted proxy and the header holds a valid IP.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	peer, err := netip.ParseAddrPort(r.RemoteAddr)
	if err != nil {
		addr, aerr := netip.ParseAddr(r.RemoteAddr)
		if aerr != nil {
			return r.RemoteAddr
		}
		peer = netip.AddrPortFrom(addr, 0)
	}
	addr := peer.Addr().Unmap()
	if !d.trustedPeer(addr) {
		return addr.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if fwd, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return fwd.Unmap().String()
		}
		d.invalidIP.Add(1)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if fwd, err := netip.ParseAddr(xri); err == nil {
			return fwd.Unmap().String()
		}
		d.invalidIP.Add(1)
	}
	return addr.String()
}

func (d *Detector) trustedPeer(addr netip.Addr) bool {
	for _, p := range d.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// GetMetrics returns a snapshot of the counters
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}

// Middleware logs requests that look like probes. They are still served.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Inspect(r); reason != "" {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				"reason", reason,
				log.FieldClientIP, d.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				"user_agent", r.UserAgent())
		}
		next.ServeHTTP(w, r)
	})
}
