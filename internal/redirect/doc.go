// Package redirect turns server-supplied locations into origin-relative paths.
//
// Every Location header and every discovered link goes through a Resolver
// before the workflow fetches it. Targets on another host are rejected with
// ErrRedirectHostMismatch and are never requested.
package redirect
