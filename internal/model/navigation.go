package model

import "net/url"

// NavigationContext is the state threaded from one navigation step to the next.
// It is owned by a single workflow run and never shared between goroutines.
type NavigationContext struct {
	// Origin is the portal origin every request is made against.
	Origin *url.URL

	// Credentials is the account being logged in.
	Credentials Credentials

	// LastURL is the URL fetched by the most recent step.
	// It becomes the Referer of the next request.
	LastURL string

	// LastBody is the decoded body of the most recent response.
	LastBody []byte

	// NextPath is an origin-relative path produced by a step for the next one
	// (for example the validated login redirect target).
	NextPath string

	// CaptchaRequired is set by the login form step when the portal asks for
	// image verification.
	CaptchaRequired bool

	// CaptchaAttempts counts captcha recognition attempts made during login.
	CaptchaAttempts int

	// Links holds content paths discovered on the authenticated page, keyed by
	// the visible anchor label.
	Links map[string]string

	// Result accumulates extracted entries. It is only handed out once every
	// step has succeeded.
	Result WorkflowResult

	// Completed lists the names of steps that finished successfully.
	Completed []string
}

// NewNavigationContext creates a context for a fresh run against origin.
func NewNavigationContext(origin *url.URL, creds Credentials, variant Variant) *NavigationContext {
	return &NavigationContext{
		Origin:      origin,
		Credentials: creds,
		Links:       make(map[string]string),
		Result:      WorkflowResult{Variant: variant},
	}
}

// URL returns the absolute URL of an origin-relative path.
func (n *NavigationContext) URL(path string) string {
	return n.Origin.Scheme + "://" + n.Origin.Host + path
}

// Visit records a fetched page. pageURL becomes the next Referer and body
// the page the next step inspects.
func (n *NavigationContext) Visit(pageURL string, body []byte) {
	n.LastURL = pageURL
	n.LastBody = body
}
