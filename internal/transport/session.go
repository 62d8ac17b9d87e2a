package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is sent when no User-Agent is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/51.0.2704.79 Safari/537.36 Edge/14.14393"

	// DefaultTimeout bounds a single request, including redirects.
	DefaultTimeout = 30 * time.Second

	// maxRedirects is the number of hops followed before giving up.
	maxRedirects = 10
)

// Request describes one portal request.
type Request struct {
	// Method defaults to GET.
	Method string

	// URL is the absolute request URL.
	URL string

	// Header holds extra request headers. A User-Agent here replaces the
	// session default.
	Header http.Header

	// Query is appended to the URL query string.
	Query url.Values

	// Form is sent as an application/x-www-form-urlencoded body.
	Form url.Values

	// DisableRedirects returns 3xx responses to the caller instead of
	// following them.
	DisableRedirects bool

	// AcceptStatus reports whether a status is acceptable. When nil, 2xx is
	// accepted, plus 3xx when redirects are disabled.
	AcceptStatus func(status int) bool

	// Raw leaves the body undecoded (for binary content such as images).
	Raw bool
}

// Response is a received portal response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body, decoded to UTF-8 unless the request was Raw.
	Body []byte

	// URL is the final URL the body was read from.
	URL string
}

// Location returns the Location header of a redirect response.
func (r *Response) Location() string {
	return r.Header.Get("Location")
}

// Session is a cookie-backed HTTP session bound to one portal origin.
type Session struct {
	client    *resty.Client
	jar       http.CookieJar
	limiter   *rate.Limiter
	logger    *slog.Logger
	userAgent string
	timeout   time.Duration
	delay     time.Duration
	proxyURI  string
	charset   string
	encoding  encoding.Encoding
	transport http.RoundTripper
}

// Option configures a Session.
type Option func(*Session)

// WithUserAgent sets the default User-Agent. Empty keeps DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(s *Session) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRequestDelay sets the minimum delay between two requests.
// Zero disables throttling.
func WithRequestDelay(d time.Duration) Option {
	return func(s *Session) {
		s.delay = d
	}
}

// WithProxy routes every connection through a SOCKS proxy URI.
// Empty disables the proxy.
func WithProxy(uri string) Option {
	return func(s *Session) {
		s.proxyURI = uri
	}
}

// WithCharset forces the charset used to decode text bodies instead of
// detecting it from headers and markup.
func WithCharset(name string) Option {
	return func(s *Session) {
		s.charset = name
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithRoundTripper replaces the network transport. The proxy option is
// ignored when a round tripper is supplied.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(s *Session) {
		s.transport = rt
	}
}

// NewSession creates a Session for origin with an empty cookie jar.
func NewSession(origin *url.URL, opts ...Option) (*Session, error) {
	if origin == nil || origin.Host == "" {
		return nil, errors.New("transport: origin must be an absolute URL")
	}

	s := &Session{
		logger:    slog.Default(),
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.charset != "" {
		enc, err := htmlindex.Get(s.charset)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCharset, s.charset)
		}
		s.encoding = enc
	}

	if s.transport == nil {
		var proxyURL *url.URL
		if s.proxyURI != "" {
			u, err := ParseProxy(s.proxyURI)
			if err != nil {
				return nil, err
			}
			proxyURL = u
		}
		t, err := newHTTPTransport(proxyURL)
		if err != nil {
			return nil, err
		}
		s.transport = t
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	s.jar = jar

	s.limiter = rate.NewLimiter(rate.Inf, 1)
	if s.delay > 0 {
		s.limiter = rate.NewLimiter(rate.Every(s.delay), 1)
	}

	client := resty.New()
	client.SetTransport(s.transport)
	client.SetCookieJar(jar)
	client.SetTimeout(s.timeout)
	client.SetHeader("User-Agent", s.userAgent)
	client.SetLogger(restyLogger{logger: s.logger})
	client.SetRedirectPolicy(
		resty.RedirectPolicyFunc(stopWhenDisabled),
		resty.FlexibleRedirectPolicy(maxRedirects),
		resty.DomainCheckRedirectPolicy(origin.Hostname()),
	)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return s.limiter.Wait(req.Context())
	})
	client.OnAfterResponse(s.trace)
	s.client = client

	return s, nil
}

type noFollowKey struct{}

func stopWhenDisabled(req *http.Request, _ []*http.Request) error {
	if off, _ := req.Context().Value(noFollowKey{}).(bool); off {
		return http.ErrUseLastResponse
	}
	return nil
}

func (s *Session) trace(_ *resty.Client, res *resty.Response) error {
	s.logger.Debug("http response",
		"method", res.Request.Method,
		"url", redactQuery(res.Request.URL),
		"status", res.StatusCode(),
		"bytes", len(res.Body()),
		"elapsed", res.Time(),
	)
	return nil
}

// Send issues req and returns the response.
//
// Network failures, timeouts and cancellation are returned as *TransportError.
// A status outside the accepted range is returned as *UnexpectedStatusError.
func (s *Session) Send(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	if req.DisableRedirects {
		ctx = context.WithValue(ctx, noFollowKey{}, true)
	}

	r := s.client.R().SetContext(ctx)
	for key, values := range req.Header {
		if len(values) > 0 {
			r.SetHeader(key, values[0])
		}
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if len(req.Form) > 0 {
		r.SetFormDataFromValues(req.Form)
	}

	res, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, &TransportError{Method: method, URL: redactQuery(req.URL), Err: err}
	}

	accept := req.AcceptStatus
	if accept == nil {
		accept = defaultAccept(req.DisableRedirects)
	}
	if !accept(res.StatusCode()) {
		return nil, &UnexpectedStatusError{Method: method, URL: redactQuery(req.URL), Status: res.StatusCode()}
	}

	body := res.Body()
	if !req.Raw {
		body, err = s.decode(body, res.Header().Get("Content-Type"))
		if err != nil {
			return nil, &TransportError{Method: method, URL: redactQuery(req.URL), Err: err}
		}
	}

	finalURL := req.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}

	return &Response{
		Status: res.StatusCode(),
		Header: res.Header(),
		Body:   body,
		URL:    finalURL,
	}, nil
}

// Cookies returns the cookies the session would send to u.
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	return s.jar.Cookies(u)
}

func defaultAccept(redirectsDisabled bool) func(int) bool {
	return func(status int) bool {
		if redirectsDisabled {
			return status >= 200 && status < 400
		}
		return status >= 200 && status < 300
	}
}

// decode converts body to UTF-8.
func (s *Session) decode(body []byte, contentType string) ([]byte, error) {
	enc := s.encoding
	if enc == nil {
		var name string
		enc, name, _ = charset.DetermineEncoding(body, contentType)
		if enc == nil || name == "utf-8" {
			return body, nil
		}
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, enc.NewDecoder().Reader(bytes.NewReader(body))); err != nil {
		return nil, fmt.Errorf("failed to decode body: %w", err)
	}
	return buf.Bytes(), nil
}

// redactQuery drops the query string so credentials sent as query
// parameters never reach logs or error messages.
func redactQuery(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
