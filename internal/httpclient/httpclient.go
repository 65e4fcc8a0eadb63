// Package httpclient builds the outbound HTTP clients used for price, quote
// page and Telegram traffic.
package httpclient

import (
	"net/http"
	"net/url"
	"time"
)

// New returns a client with the given timeout. A non-empty proxyURL routes
// every request through it; an unparsable one is ignored.
func New(proxyURL string, timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = nil
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil && u.Host != "" {
			tr.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}
