package admission

import (
	"net/url"
	"strings"
)

// OriginPolicy decides which browser origins may open a connection. Empty
// origins (non-browser clients) and same-host origins are always allowed.
type OriginPolicy struct {
	allowed       string
	isDevelopment bool
}

func NewOriginPolicy(allowedOrigin string, isDevelopment bool) OriginPolicy {
	return OriginPolicy{allowed: extractOrigin(allowedOrigin), isDevelopment: isDevelopment}
}

func (p OriginPolicy) Allows(origin, host string) bool {
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if strings.EqualFold(u.Host, host) {
		return true
	}
	if p.allowed != "" && strings.EqualFold(u.Scheme+"://"+u.Host, p.allowed) {
		return true
	}
	if p.isDevelopment && isLocalhost(u.Hostname()) {
		return true
	}
	return false
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isLocalhost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
