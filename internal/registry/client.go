package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	kerrors "github.com/PolarWolf314/pkgdoctor/internal/errors"
	"github.com/hashicorp/go-cleanhttp"
)

// Options configures a Client.
type Options struct {
	// Registry is the registry base URL.
	Registry string
	// Token is sent as a bearer credential to the registry host only.
	Token string
	// Proxy is used for http requests, and for https requests when HTTPSProxy is empty.
	Proxy string
	// HTTPSProxy is used for https requests.
	HTTPSProxy string
	// UserAgent defaults to "pkgdoctor".
	UserAgent string
	// HTTPClient overrides the client built from the options above.
	HTTPClient *http.Client
}

// Client talks to an npm registry and to the node release index.
type Client struct {
	registry  *url.URL
	token     string
	userAgent string
	http      *http.Client
}

// New builds a Client. It fails with ErrInvalidProxy when a proxy URL is
// unusable and no request is ever attempted in that case.
func New(opts Options) (*Client, error) {
	registry, err := url.Parse(opts.Registry)
	if err != nil || registry.Scheme == "" || registry.Host == "" {
		return nil, fmt.Errorf("invalid registry URL %q", opts.Registry)
	}
	if !strings.HasSuffix(registry.Path, "/") {
		registry.Path += "/"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		proxy, err := proxyFunc(opts.Proxy, opts.HTTPSProxy)
		if err != nil {
			return nil, err
		}
		transport := cleanhttp.DefaultPooledTransport()
		transport.Proxy = proxy
		httpClient = &http.Client{Transport: transport}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = "pkgdoctor"
	}

	return &Client{
		registry:  registry,
		token:     opts.Token,
		userAgent: userAgent,
		http:      httpClient,
	}, nil
}

// ProxyError describes an unusable proxy setting.
type ProxyError struct {
	Proxy  string
	Reason string
}

func (e *ProxyError) Error() string {
	return e.Reason
}

// Unwrap lets callers match proxy failures against ErrInvalidProxy.
func (e *ProxyError) Unwrap() error {
	return kerrors.ErrInvalidProxy
}

// ValidateProxy checks that raw is empty or an http(s) URL with a host.
func ValidateProxy(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return &ProxyError{Proxy: raw, Reason: fmt.Sprintf("cannot parse proxy %q: %v", raw, err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ProxyError{Proxy: raw, Reason: fmt.Sprintf("invalid protocol %q for proxy %q", u.Scheme+":", raw)}
	}
	if u.Host == "" {
		return &ProxyError{Proxy: raw, Reason: fmt.Sprintf("proxy %q has no host", raw)}
	}
	return nil
}

// proxyFunc picks the configured proxy per request scheme and falls back
// to the environment when none is configured.
func proxyFunc(httpProxy, httpsProxy string) (func(*http.Request) (*url.URL, error), error) {
	if err := ValidateProxy(httpProxy); err != nil {
		return nil, err
	}
	if err := ValidateProxy(httpsProxy); err != nil {
		return nil, err
	}
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment, nil
	}

	var plain, secure *url.URL
	if httpProxy != "" {
		plain, _ = url.Parse(httpProxy)
	}
	secure = plain
	if httpsProxy != "" {
		secure, _ = url.Parse(httpsProxy)
	}
	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" {
			return secure, nil
		}
		return plain, nil
	}, nil
}

// Ping checks that the registry answers GET /-/ping?write=true with a 2xx.
func (c *Client) Ping(ctx context.Context) error {
	u := c.registry.ResolveReference(&url.URL{Path: "-/ping", RawQuery: "write=true"})
	resp, err := c.get(ctx, u.String(), true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Packument fetches the full metadata document for name.
func (c *Client) Packument(ctx context.Context, name string) (*Packument, error) {
	u := c.registry.ResolveReference(&url.URL{Path: name, RawPath: url.PathEscape(name)})
	var packument Packument
	if err := c.getJSON(ctx, u.String(), true, &packument); err != nil {
		return nil, err
	}
	return &packument, nil
}

// FetchIndex fetches a node release index. The registry credential is
// never sent to the index host.
func (c *Client) FetchIndex(ctx context.Context, indexURL string) ([]Release, error) {
	var releases []Release
	if err := c.getJSON(ctx, indexURL, false, &releases); err != nil {
		return nil, err
	}
	return releases, nil
}

func (c *Client) getJSON(ctx context.Context, target string, auth bool, out any) error {
	resp, err := c.get(ctx, target, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &kerrors.RegistryError{
			Kind:    kerrors.KindMalformed,
			Method:  http.MethodGet,
			URL:     target,
			Message: err.Error(),
		}
	}
	return nil
}

// get issues a GET and converts every failure into a *RegistryError.
// Non-2xx responses are closed before returning.
func (c *Client) get(ctx context.Context, target string, auth bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &kerrors.RegistryError{Kind: kerrors.KindMessage, Method: http.MethodGet, URL: target, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if auth && c.token != "" && req.URL.Host == c.registry.Host {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(http.MethodGet, target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &kerrors.RegistryError{
			Kind:       kerrors.KindStatus,
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			URL:        target,
		}
	}
	return resp, nil
}

// classify maps a transport failure onto the coded or message-only variant.
func classify(method, target string, err error) *kerrors.RegistryError {
	regErr := &kerrors.RegistryError{Kind: kerrors.KindMessage, Method: method, URL: target}

	// Strip the url.Error wrapper; it repeats the method and URL.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		regErr.Message = urlErr.Err.Error()
	} else {
		regErr.Message = err.Error()
	}

	var errno syscall.Errno
	var dnsErr *net.DNSError
	var netErr net.Error
	switch {
	case errors.As(err, &errno) && errnoName(errno) != "":
		regErr.Kind = kerrors.KindCoded
		regErr.Code = errnoName(errno)
	case errors.As(err, &dnsErr) && dnsErr.IsNotFound:
		regErr.Kind = kerrors.KindCoded
		regErr.Code = "ENOTFOUND"
	case errors.As(err, &netErr) && netErr.Timeout():
		regErr.Kind = kerrors.KindCoded
		regErr.Code = "ETIMEDOUT"
	}
	return regErr
}
