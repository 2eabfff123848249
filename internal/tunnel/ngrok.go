// Package tunnel publishes the local HTTP server through an ngrok endpoint,
// so calendar apps and remote MCP clients can reach it without port forwarding.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	ngroklib "golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// ErrMissingAuthToken is returned by Start when no ngrok token is configured.
var ErrMissingAuthToken = errors.New("ngrok auth token is required (set tunnel.authtoken or HABITUAL_NGROK_AUTHTOKEN)")

// Tunnel accepts public connections for the local server.
type Tunnel interface {
	Start(ctx context.Context) (net.Listener, error)
	PublicURL() string
	Close() error
}

// Ngrok implements Tunnel with an ngrok HTTPS endpoint.
type Ngrok struct {
	authToken string
	domain    string
	listener  net.Listener
	url       string
}

var _ Tunnel = (*Ngrok)(nil)

// NewNgrok creates an ngrok tunnel. domain is optional; without it ngrok
// assigns a random one.
func NewNgrok(authToken, domain string) *Ngrok {
	return &Ngrok{authToken: authToken, domain: domain}
}

// Start opens the endpoint and returns the listener to serve HTTP on.
func (n *Ngrok) Start(ctx context.Context) (net.Listener, error) {
	if n.authToken == "" {
		return nil, ErrMissingAuthToken
	}

	var opts []ngrokconfig.HTTPEndpointOption
	if n.domain != "" {
		opts = append(opts, ngrokconfig.WithDomain(n.domain))
	}

	slog.Info("starting ngrok tunnel", "domain", n.domain)
	ln, err := ngroklib.Listen(ctx, ngrokconfig.HTTPEndpoint(opts...), ngroklib.WithAuthtoken(n.authToken))
	if err != nil {
		return nil, fmt.Errorf("creating ngrok tunnel: %w", err)
	}

	n.listener = ln
	n.url = publicURL(ln.Addr().String())
	slog.Info("ngrok tunnel established", "public_url", n.url)

	return ln, nil
}

// PublicURL returns the https URL of the endpoint, or "" before Start.
func (n *Ngrok) PublicURL() string {
	return n.url
}

// Close tears the endpoint down. Closing an unstarted tunnel is a no-op.
func (n *Ngrok) Close() error {
	if n.listener == nil {
		return nil
	}
	slog.Info("closing ngrok tunnel", "public_url", n.url)

	err := n.listener.Close()
	n.listener = nil
	n.url = ""
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("closing ngrok tunnel: %w", err)
	}
	return nil
}

// publicURL normalizes a listener address to an https URL without trailing slash.
func publicURL(addr string) string {
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "https://" + addr
	}
	return strings.TrimRight(addr, "/")
}
