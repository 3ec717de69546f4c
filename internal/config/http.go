package config

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// HTTPClient returns a client that routes requests through the configured
// proxies. With no proxy configured it connects directly; the process
// environment's proxy variables are not consulted.
func (p ProxyConfig) HTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	if p.HTTP != "" || p.HTTPS != "" {
		proxyFunc := p.proxyConfig().ProxyFunc()
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxyFunc(req.URL)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func (p ProxyConfig) proxyConfig() *httpproxy.Config {
	return &httpproxy.Config{
		HTTPProxy:  p.HTTP,
		HTTPSProxy: p.HTTPS,
		NoProxy:    p.NoProxy,
	}
}
