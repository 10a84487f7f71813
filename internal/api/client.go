package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jxwalker/mdcsync/internal/config"
	friendlyerrors "github.com/jxwalker/mdcsync/internal/errors"
	"github.com/jxwalker/mdcsync/internal/logging"
)

// Version is reported in the default User-Agent; cmd/mdcsync overrides it.
var Version = "dev"

// Client talks to the MediaDC REST API of one Nextcloud instance.
type Client struct {
	base     *neturl.URL
	http     *http.Client
	user     string
	password string
	ua       string
	log      *logging.Logger
}

// New builds a Client from config. The app password is read from the
// environment variable named by server.password_env.
func New(cfg *config.Config, log *logging.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	base, err := baseURL(cfg)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:     base,
		http:     newHTTPClient(cfg),
		user:     cfg.Server.User,
		password: strings.TrimSpace(os.Getenv(cfg.PasswordEnv())),
		ua:       userAgent(cfg),
		log:      log,
	}, nil
}

func baseURL(cfg *config.Config) (*neturl.URL, error) {
	u, err := neturl.Parse(strings.TrimRight(strings.TrimSpace(cfg.Server.URL), "/"))
	if err != nil {
		return nil, friendlyerrors.ConfigError("server.url", err.Error())
	}
	p := u.Path
	if !cfg.Server.PrettyURLs {
		p += "/index.php"
	}
	u.Path = p + cfg.AppPath() + "/"
	return u, nil
}

func newHTTPClient(cfg *config.Config) *http.Client {
	timeout := time.Duration(cfg.Network.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		// python/install runs pip on the server and routinely takes minutes
		timeout = 15 * time.Minute
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   4,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !cfg.TLSVerify(),
		},
	}
	client := &http.Client{Transport: tr, Timeout: timeout}
	// Only forward credentials when the redirect stays on the same host.
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= 10 {
			return fmt.Errorf("stopped after %d redirects", len(via))
		}
		prev := via[len(via)-1]
		if prev.URL != nil && req.URL != nil && !strings.EqualFold(prev.URL.Host, req.URL.Host) {
			req.Header.Del("Authorization")
		}
		return nil
	}
	return client
}

// userAgent returns the configured User-Agent, or
// "mdcsync/<version> (<goos>/<goarch>)" when not set.
func userAgent(cfg *config.Config) string {
	if cfg != nil && cfg.Network.UserAgent != "" {
		return cfg.Network.UserAgent
	}
	return fmt.Sprintf("mdcsync/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH)
}

// GenerateURL resolves a path relative to the MediaDC API root,
// e.g. "settings/name/installed".
func (c *Client) GenerateURL(rel string) string {
	ref := &neturl.URL{Path: strings.TrimLeft(rel, "/")}
	return c.base.ResolveReference(ref).String()
}

// GetSettings fetches all MediaDC settings.
func (c *Client) GetSettings(ctx context.Context) (SettingsResponse, error) {
	var out SettingsResponse
	err := c.do(ctx, http.MethodGet, "settings", nil, &out)
	return out, err
}

// GetSetting fetches one setting by name.
func (c *Client) GetSetting(ctx context.Context, name string) (SettingResponse, error) {
	var out SettingResponse
	err := c.do(ctx, http.MethodGet, "settings/name/"+name, nil, &out)
	return out, err
}

// PutSetting persists a setting by name. The acknowledgement is discarded.
func (c *Client) PutSetting(ctx context.Context, s Setting) error {
	body := map[string]any{"setting": s}
	return c.do(ctx, http.MethodPut, "settings/name/"+s.Name, body, nil)
}

// PythonInstall installs every dependency list.
func (c *Client) PythonInstall(ctx context.Context) (PythonResponse, error) {
	var out PythonResponse
	err := c.do(ctx, http.MethodGet, "python/install", nil, &out)
	return out, err
}

// PythonInstallList installs one named dependency list.
func (c *Client) PythonInstallList(ctx context.Context, listName string) (PythonResponse, error) {
	var out PythonResponse
	err := c.do(ctx, http.MethodPost, "python/install", map[string]any{"listName": listName}, &out)
	return out, err
}

// PythonDelete removes the given packages.
func (c *Client) PythonDelete(ctx context.Context, packages []string) (PythonResponse, error) {
	var out PythonResponse
	err := c.do(ctx, http.MethodPost, "python/delete", packagesBody(packages), &out)
	return out, err
}

// PythonUpdate upgrades the given packages.
func (c *Client) PythonUpdate(ctx context.Context, packages []string) (PythonResponse, error) {
	var out PythonResponse
	err := c.do(ctx, http.MethodPost, "python/update", packagesBody(packages), &out)
	return out, err
}

// PythonCheck re-evaluates the installed state without changing anything.
func (c *Client) PythonCheck(ctx context.Context) (PythonResponse, error) {
	var out PythonResponse
	err := c.do(ctx, http.MethodGet, "python/check", nil, &out)
	return out, err
}

func packagesBody(packages []string) map[string]any {
	if packages == nil {
		packages = []string{}
	}
	return map[string]any{"packagesList": packages}
}

func (c *Client) do(ctx context.Context, method, rel string, body any, out any) error {
	full := c.GenerateURL(rel)
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, full, rdr)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OCS-APIREQUEST", "true")
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	log := c.log.With("request_id", reqID)
	start := time.Now()
	log.Debugf("%s %s", method, logging.SanitizeURL(full))
	resp, err := c.http.Do(req)
	if err != nil {
		log.Debugf("%s %s failed: %v", method, rel, err)
		return friendlyerrors.NetworkError(err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return friendlyerrors.NetworkError(err)
	}
	log.Debugf("%s %s -> %d in %s", method, rel, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return friendlyerrors.AuthError(c.base.Host, resp.StatusCode, fmt.Errorf("%s %s: %s", method, rel, resp.Status))
	case resp.StatusCode >= 400:
		return friendlyerrors.APIStatusError(method, rel, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, rel, err)
	}
	return nil
}
