// Package transport provides the cookie-backed HTTP session every portal
// request goes through.
//
// A Session wraps a resty client with a session-scoped cookie jar, a default
// User-Agent, an optional SOCKS proxy and a politeness rate limiter. Text
// responses are decoded to UTF-8 before they reach the caller.
//
// Redirects are followed only within the portal host. A caller that must
// inspect a redirect before it is followed sets Request.DisableRedirects and
// receives the 3xx response itself.
//
// A Session belongs to a single workflow run and is discarded with it. Create
// one per run rather than sharing it between runs.
package transport
