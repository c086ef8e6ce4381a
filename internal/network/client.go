// Package network builds HTTP and WebSocket transports for API clients,
// optionally routed through an HTTP or SOCKS5 proxy.
package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
)

// NewHTTPClient returns a client with the given timeout. An empty proxyURL
// connects directly.
func NewHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	transport, err := NewTransport(proxyURL)
	if err != nil {
		return nil, err
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// NewTransport creates an http.Transport with proxy configuration.
// SOCKS proxies go through golang.org/x/net/proxy, HTTP(S) proxies through
// http.ProxyURL.
func NewTransport(proxyURL string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL == "" {
		transport.Proxy = nil
		return transport, nil
	}

	parsed, err := parseProxy(proxyURL)
	if err != nil {
		return nil, err
	}

	if isSOCKS(parsed) {
		dial, err := socksDialContext(parsed)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dial
		return transport, nil
	}

	transport.Proxy = http.ProxyURL(parsed)
	return transport, nil
}

// NewWebSocketDialer mirrors NewTransport for the update channel.
func NewWebSocketDialer(proxyURL string, handshakeTimeout time.Duration) (*websocket.Dialer, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	if proxyURL == "" {
		return dialer, nil
	}

	parsed, err := parseProxy(proxyURL)
	if err != nil {
		return nil, err
	}

	if isSOCKS(parsed) {
		dial, err := socksDialContext(parsed)
		if err != nil {
			return nil, err
		}
		dialer.NetDialContext = dial
		return dialer, nil
	}

	dialer.Proxy = http.ProxyURL(parsed)
	return dialer, nil
}

func parseProxy(proxyURL string) (*url.URL, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	switch parsed.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("proxy url %q has no host", proxyURL)
	}
	return parsed, nil
}

func isSOCKS(u *url.URL) bool {
	return strings.HasPrefix(u.Scheme, "socks")
}

func socksDialContext(parsed *url.URL) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	var auth *proxy.Auth
	if parsed.User != nil {
		auth = &proxy.Auth{User: parsed.User.Username()}
		if password, ok := parsed.User.Password(); ok {
			auth.Password = password
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}
