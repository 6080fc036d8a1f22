package netutil

import (
	"net/http"
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// ClientIP extracts the caller's IP for audit logging. The router installs
// chi's RealIP middleware, so RemoteAddr already reflects X-Forwarded-For /
// X-Real-IP when the service sits behind a proxy; this only strips the port
// and normalizes the textual form.
func ClientIP(r *http.Request) string {
	raw := strings.TrimSpace(r.RemoteAddr)
	if addrPort, err := netip.ParseAddrPort(raw); err == nil {
		return addrPort.Addr().WithZone("").String()
	}
	if addr, err := netip.ParseAddr(raw); err == nil {
		return addr.WithZone("").String()
	}
	return raw
}

// TruncateUserAgent caps user agents at MaxUserAgentLength runes so log
// records and audit rows stay bounded.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	runes := []rune(ua)
	return string(runes[:MaxUserAgentLength])
}
