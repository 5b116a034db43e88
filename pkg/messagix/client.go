package messagix

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"go.mau.fi/mercury-send/pkg/messagix/cookies"
	"go.mau.fi/mercury-send/pkg/messagix/data/endpoints"
	"go.mau.fi/mercury-send/pkg/messagix/methods"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

var ErrClientIsNil = errors.New("messagix client is nil")

const DefaultTimeout = 60 * time.Second

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"

type Config struct {
	Platform types.Platform
	// BaseURL overrides the platform host, e.g. to go through a local proxy.
	BaseURL string
	// FbDtsg is the CSRF token of the web session. The send endpoints reject
	// requests without it, but it is not needed for tests against fake servers.
	FbDtsg    string
	UserAgent string
	Proxy     string
	// Timeout bounds each request including reading the response. Defaults
	// to DefaultTimeout.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate checks, e.g. for an
	// intercepting debug proxy.
	InsecureSkipVerify bool

	ClientSettings exhttp.ClientSettings
}

// Client sends messages through the mercury web endpoints. A Client is safe
// for concurrent use: every call builds its own form and the session cookies
// are never modified.
type Client struct {
	Logger   zerolog.Logger
	Platform types.Platform

	http         *http.Client
	httpSettings exhttp.ClientSettings
	proxyAddr    string
	timeout      time.Duration
	insecure     bool

	cookies   *cookies.Cookies
	fbDtsg    string
	jazoest   string
	userAgent string
	endpoints map[string]string

	requests atomic.Int64
}

func NewClient(session *cookies.Cookies, logger zerolog.Logger, cfg *Config) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("messagix: session cookies must be set")
	} else if session.GetUserID() == 0 {
		return nil, fmt.Errorf("%w: missing %s cookie", ErrTokenInvalidated, cookies.FBCookieCUser)
	}
	if cfg == nil {
		cfg = &Config{}
	}
	platform := cfg.Platform
	if platform == types.Unset {
		platform = types.FacebookFree
	} else if !platform.IsValid() {
		return nil, fmt.Errorf("messagix: invalid platform %d", platform)
	}
	cli := &Client{
		Logger:    logger,
		Platform:  platform,
		cookies:   session,
		fbDtsg:    cfg.FbDtsg,
		jazoest:   methods.GenerateJazoest(cfg.FbDtsg),
		userAgent: cfg.UserAgent,
		proxyAddr: cfg.Proxy,
		timeout:   cfg.Timeout,
		insecure:  cfg.InsecureSkipVerify,
	}
	if cli.timeout <= 0 {
		cli.timeout = DefaultTimeout
	}
	if cli.userAgent == "" {
		cli.userAgent = DefaultUserAgent
	}
	if cfg.BaseURL != "" {
		cli.endpoints = endpoints.MakeFacebookEndpoints(cfg.BaseURL)
	} else {
		cli.configurePlatformClient()
	}
	if err := cli.SetHTTP(cfg.ClientSettings); err != nil {
		return nil, err
	}
	return cli, nil
}

func (c *Client) configurePlatformClient() {
	switch c.Platform {
	case types.FacebookFree:
		c.endpoints = endpoints.FacebookFreeEndpoints
	case types.Facebook:
		c.endpoints = endpoints.FacebookEndpoints
	case types.FacebookMBasic:
		c.endpoints = endpoints.FacebookMBasicEndpoints
	case types.FacebookTor:
		c.endpoints = endpoints.FacebookTorEndpoints
	}
}

// UserID is the ID of the account the session belongs to. It is the author
// of every message and the last member of newly created groups.
func (c *Client) UserID() int64 {
	if c == nil {
		return 0
	}
	return c.cookies.GetUserID()
}

func (c *Client) userIDString() string {
	return strconv.FormatInt(c.UserID(), 10)
}

func (c *Client) SetHTTP(settings exhttp.ClientSettings) error {
	if c == nil {
		return ErrClientIsNil
	}
	compiled := settings.WithGlobalTimeout(c.timeout)
	if c.proxyAddr != "" {
		var err error
		compiled, err = compiled.WithProxy(c.proxyAddr)
		if err != nil {
			return fmt.Errorf("failed to set proxy: %w", err)
		}
	}
	httpClient := compiled.Compile()
	if c.insecure {
		transport, ok := httpClient.Transport.(*http.Transport)
		if !ok {
			return fmt.Errorf("can't disable TLS verification on %T", httpClient.Transport)
		}
		if transport.TLSClientConfig != nil {
			transport.TLSClientConfig = transport.TLSClientConfig.Clone()
		} else {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true
	}
	httpClient.CheckRedirect = c.checkHTTPRedirect
	c.httpSettings = settings
	oldHTTP := c.http
	c.http = httpClient
	if oldHTTP != nil {
		oldHTTP.CloseIdleConnections()
	}
	return nil
}

func (c *Client) SetProxy(proxyAddr string) error {
	if c == nil {
		return ErrClientIsNil
	}
	c.proxyAddr = proxyAddr
	if err := c.SetHTTP(c.httpSettings); err != nil {
		return err
	}
	c.Logger.Debug().Str("proxy", proxyAddr).Msg("Using proxy")
	return nil
}

func (c *Client) GetEndpoint(name string) string {
	if endpoint, ok := c.endpoints[name]; ok {
		return endpoint
	}
	panic(fmt.Sprintf("messagix-client: endpoint %s not found", name))
}
