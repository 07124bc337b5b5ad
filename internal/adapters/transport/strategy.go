package transport

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const userAgent = "mlbedge/1.0"

// Strategy builds the outbound request for one way of reaching the API.
type Strategy interface {
	Name() string
	NewRequest(ctx context.Context, path string, query url.Values) (*http.Request, error)
}

// Direct calls the API at its own origin.
type Direct struct {
	BaseURL string
}

// NewDirect returns a Direct strategy for baseURL.
func NewDirect(baseURL string) *Direct {
	return &Direct{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Name implements Strategy.
func (d *Direct) Name() string { return "direct" }

// URL returns the absolute target URL.
func (d *Direct) URL(path string, query url.Values) string {
	u := d.BaseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// NewRequest implements Strategy.
func (d *Direct) NewRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.URL(path, query), nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req)
	return req, nil
}

// Proxy reaches the API through a relay that takes the full target URL
// appended to its prefix. Prefixes ending in "?" or "=" get the target
// query-escaped.
type Proxy struct {
	Prefix string
	target *Direct
}

// NewProxy returns a Proxy strategy relaying to baseURL through prefix.
func NewProxy(prefix, baseURL string) *Proxy {
	return &Proxy{Prefix: prefix, target: NewDirect(baseURL)}
}

// Name implements Strategy.
func (p *Proxy) Name() string { return "proxy" }

// URL returns the relayed URL.
func (p *Proxy) URL(path string, query url.Values) string {
	target := p.target.URL(path, query)
	if strings.HasSuffix(p.Prefix, "?") || strings.HasSuffix(p.Prefix, "=") {
		return p.Prefix + url.QueryEscape(target)
	}
	return p.Prefix + target
}

// NewRequest implements Strategy.
func (p *Proxy) NewRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL(path, query), nil)
	if err != nil {
		return nil, err
	}
	setHeaders(req)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	return req, nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}
