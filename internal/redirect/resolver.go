package redirect

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Resolver validates locations against a single portal host.
type Resolver struct {
	scheme string
	host   string
}

// NewResolver creates a Resolver for the host of origin.
// A non-default port is part of the comparison; ":80" for http and ":443"
// for https are ignored on both sides.
func NewResolver(origin *url.URL) *Resolver {
	scheme := strings.ToLower(origin.Scheme)
	return &Resolver{scheme: scheme, host: canonicalHost(origin, scheme)}
}

// Resolve returns the origin-relative path for location, resolving relative
// segments against the portal root.
func (r *Resolver) Resolve(location string) (string, error) {
	return r.ResolveFrom("/", location)
}

// ResolveFrom returns the origin-relative path for location.
//
// Rules are applied in order:
//  1. a value starting with "/" is returned unchanged
//  2. an absolute URL is accepted only when its host equals the origin host,
//     compared case-insensitively, and yields its path and query
//  3. anything else is joined against the directory of currentPath
func (r *Resolver) ResolveFrom(currentPath, location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ErrEmptyLocation
	}
	if strings.HasPrefix(location, "/") && !strings.HasPrefix(location, "//") {
		return location, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidLocation, location, err)
	}

	if u.Host != "" {
		if !strings.EqualFold(canonicalHost(u, r.scheme), r.host) {
			return "", &HostMismatchError{Location: location, Host: u.Host, Want: r.host}
		}
		return pathWithQuery(u), nil
	}
	if u.Scheme != "" {
		// "javascript:..." and similar carry no host and no usable path.
		return "", fmt.Errorf("%w: %q", ErrInvalidLocation, location)
	}

	dir := "/"
	if currentPath != "" {
		if cur, err := url.Parse(currentPath); err == nil && cur.Path != "" {
			dir = path.Dir(cur.Path)
		}
	}
	base := &url.URL{Path: strings.TrimSuffix(dir, "/") + "/"}
	return pathWithQuery(base.ResolveReference(u)), nil
}

// canonicalHost returns the lower-cased host of u without the default port
// of its scheme. Scheme-relative URLs use fallbackScheme.
func canonicalHost(u *url.URL, fallbackScheme string) string {
	host := strings.ToLower(u.Host)
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = fallbackScheme
	}
	switch port := u.Port(); {
	case scheme == "http" && port == "80", scheme == "https" && port == "443":
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}

func pathWithQuery(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}
