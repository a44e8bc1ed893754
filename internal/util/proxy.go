package util

import (
	"net/http"
	"net/url"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc builds the transport proxy for outbound fetches and LLM calls.
// With no proxy configured the HTTP_PROXY, HTTPS_PROXY and NO_PROXY
// environment variables apply. An https request falls back to httpProxy
// when httpsProxy is empty. noProxy uses the NO_PROXY syntax (hosts, domain
// suffixes, CIDRs); loopback targets are never proxied.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}
	if httpsProxy == "" {
		httpsProxy = httpProxy
	}

	resolve := (&httpproxy.Config{
		HTTPProxy:  httpProxy,
		HTTPSProxy: httpsProxy,
		NoProxy:    noProxy,
	}).ProxyFunc()

	return func(req *http.Request) (*url.URL, error) {
		return resolve(req.URL)
	}
}
