package system

import (
	"context"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/jxwalker/mdcsync/internal/errors"
)

// CheckServerReachable resolves the host of serverURL and opens a TCP
// connection to it. It does not speak HTTP; the API client does that.
func CheckServerReachable(ctx context.Context, serverURL string) error {
	u, err := neturl.Parse(serverURL)
	if err != nil || u.Hostname() == "" {
		return errors.ConfigError("server.url", fmt.Sprintf("not a valid URL: %q", serverURL))
	}
	host := u.Hostname()

	resolver := &net.Resolver{}
	if _, err := resolver.LookupHost(ctx, host); err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot resolve host: %s", host),
			"Check that server.url is correct and your DNS is working",
		).WithDetails(err)
	}

	port := u.Port()
	if port == "" {
		port = "443"
		if u.Scheme == "http" {
			port = "80"
		}
	}
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return errors.NewFriendlyError(
			fmt.Sprintf("Cannot connect to %s", net.JoinHostPort(host, port)),
			fmt.Sprintf("Host is unreachable:\n"+
				"1. Check that the Nextcloud server is running\n"+
				"2. Verify the port is not blocked by a firewall\n"+
				"3. Try: curl -I %s", serverURL),
		).WithDetails(err)
	}
	_ = conn.Close()
	return nil
}

// ProxyFor returns the proxy the HTTP client would use for serverURL, or "".
func ProxyFor(serverURL string) string {
	req, err := http.NewRequest(http.MethodGet, serverURL, nil)
	if err != nil {
		return ""
	}
	if p, _ := http.ProxyFromEnvironment(req); p != nil {
		return p.Redacted()
	}
	return ""
}
