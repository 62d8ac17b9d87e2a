package portal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/nao1215/portalwatch/internal/captcha"
	"github.com/nao1215/portalwatch/internal/extract"
	"github.com/nao1215/portalwatch/internal/model"
	"github.com/nao1215/portalwatch/internal/redirect"
	"github.com/nao1215/portalwatch/internal/transport"
)

// Sender issues portal requests. *transport.Session implements it.
type Sender interface {
	Send(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// fetcher holds what every step needs to request a page.
type fetcher struct {
	session Sender
	logger  *slog.Logger
}

// get fetches path with referer and records the page in nav.
func (f *fetcher) get(ctx context.Context, nav *model.NavigationContext, path, referer string, query url.Values) (*transport.Response, error) {
	pageURL := nav.URL(path)
	res, err := f.session.Send(ctx, transport.Request{
		Method: http.MethodGet,
		URL:    pageURL,
		Header: refererHeader(referer),
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	f.logger.Debug("page fetched", "url", pageURL, "status", res.Status, "bytes", len(res.Body))
	nav.Visit(pageURL, res.Body)
	return res, nil
}

func refererHeader(referer string) http.Header {
	h := http.Header{}
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

func requireMarker(step string, body []byte, marker string) error {
	if !bytes.Contains(body, []byte(marker)) {
		return &PageShapeError{Step: step, Marker: marker}
	}
	return nil
}

// HomepageStep opens the portal root.
type HomepageStep struct {
	*fetcher
}

// Name returns the step name.
func (s *HomepageStep) Name() string { return StepHomepage }

// Do fetches "/" and checks for the frameset.
func (s *HomepageStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	res, err := s.get(ctx, nav, homepagePath, "", nil)
	if err != nil {
		return err
	}
	return requireMarker(s.Name(), res.Body, homepageMarker)
}

// LoginFormStep opens the login form and detects whether a captcha is needed.
type LoginFormStep struct {
	*fetcher
	forceCaptcha bool
}

// Name returns the step name.
func (s *LoginFormStep) Name() string { return StepLoginForm }

// Do fetches the login form.
func (s *LoginFormStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	res, err := s.get(ctx, nav, loginFormPath, nav.LastURL, nil)
	if err != nil {
		return err
	}
	if err := requireMarker(s.Name(), res.Body, loginFormMarker); err != nil {
		return err
	}
	nav.CaptchaRequired = s.forceCaptcha || bytes.Contains(res.Body, []byte(captchaMarker))
	if nav.CaptchaRequired {
		s.logger.Debug("login form requires a captcha")
	}
	return nil
}

// CredentialsStep submits the account, solving the captcha when required.
// On success nav.NextPath holds the unvalidated redirect location.
type CredentialsStep struct {
	*fetcher
	loop *captcha.Loop
}

// Name returns the step name.
func (s *CredentialsStep) Name() string { return StepCredentials }

// Do submits the login.
func (s *CredentialsStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	formURL := nav.LastURL
	submitURL := nav.URL(loginSubmitPath)

	submit := func(ctx context.Context, code string) (captcha.Verdict, error) {
		query := url.Values{
			fieldUsername: {nav.Credentials.Username},
			fieldPassword: {nav.Credentials.Password},
		}
		if nav.CaptchaRequired {
			query.Set(fieldCaptcha, code)
		}
		res, err := s.session.Send(ctx, transport.Request{
			Method:           http.MethodGet,
			URL:              submitURL,
			Header:           refererHeader(formURL),
			Query:            query,
			DisableRedirects: true,
		})
		if err != nil {
			return captcha.Verdict{}, err
		}
		nav.Visit(submitURL, res.Body)
		v := captcha.Classify(res.Status, res.Header, res.Body)
		s.logger.Debug("login submitted", "status", res.Status, "verdict", v.Kind.String(), "location", res.Location())
		return v, nil
	}

	if !nav.CaptchaRequired {
		v, err := submit(ctx, "")
		if err != nil {
			return err
		}
		if v.Kind != captcha.Accepted {
			return &captcha.LoginRejectedError{Message: v.Message}
		}
		nav.NextPath = v.Location
		return nil
	}

	if s.loop == nil {
		return captcha.ErrNoRecognizer
	}
	res, err := s.loop.Resolve(ctx, captcha.Challenge{
		FetchImage: func(ctx context.Context) ([]byte, error) {
			img, err := s.session.Send(ctx, transport.Request{
				Method: http.MethodGet,
				URL:    nav.URL(captchaImagePath),
				Header: refererHeader(formURL),
				Raw:    true,
			})
			if err != nil {
				return nil, err
			}
			return img.Body, nil
		},
		Submit: submit,
	})
	nav.CaptchaAttempts = res.Attempts
	if err != nil {
		return err
	}
	nav.NextPath = res.Location
	return nil
}

// RedirectStep validates the login redirect target. It issues no request.
type RedirectStep struct {
	resolver *redirect.Resolver
}

// Name returns the step name.
func (s *RedirectStep) Name() string { return StepRedirect }

// Do replaces nav.NextPath with the validated origin-relative path.
func (s *RedirectStep) Do(_ context.Context, nav *model.NavigationContext) error {
	path, err := s.resolver.ResolveFrom(loginSubmitPath, nav.NextPath)
	if err != nil {
		return err
	}
	nav.NextPath = path
	return nil
}

// LandingStep follows the validated redirect to the authenticated landing page.
type LandingStep struct {
	*fetcher
}

// Name returns the step name.
func (s *LandingStep) Name() string { return StepLanding }

// Do fetches the landing page. The Referer is the login submission URL.
func (s *LandingStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	if nav.NextPath == "" {
		return errors.New("no redirect target to follow")
	}
	res, err := s.get(ctx, nav, nav.NextPath, nav.LastURL, nil)
	if err != nil {
		return err
	}
	nav.NextPath = ""
	if len(bytes.TrimSpace(res.Body)) == 0 {
		return &PageShapeError{Step: s.Name()}
	}
	return nil
}

// TopFrameStep opens the authenticated top frame and discovers both content
// links.
type TopFrameStep struct {
	*fetcher
	resolver *redirect.Resolver
}

// Name returns the step name.
func (s *TopFrameStep) Name() string { return StepTopFrame }

// Do fetches the top frame and fills nav.Links.
func (s *TopFrameStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	res, err := s.get(ctx, nav, topFramePath, nav.LastURL, nil)
	if err != nil {
		return err
	}
	if err := requireMarker(s.Name(), res.Body, authenticatedMarker); err != nil {
		return err
	}

	page := string(res.Body)
	for _, label := range []string{IllegalProgramsLabel, AnnouncementsLabel} {
		href, err := extract.AnchorTarget(page, label)
		if err != nil {
			return err
		}
		path, err := s.resolver.ResolveFrom(topFramePath, href)
		if err != nil {
			return fmt.Errorf("link %q: %w", label, err)
		}
		nav.Links[label] = path
	}
	return nil
}

// ContentStep fetches one content page and extracts its entries.
type ContentStep struct {
	*fetcher
	name     string
	label    string
	variant  model.Variant
	callback string
	fields   []string
	// container locates the entries in the HTML variant.
	container func(page string) (string, error)
	// parse extracts HTML entries from the container markup.
	parse func(markup string) ([]model.TableRow, error)
	// store receives the extracted entries.
	store func(nav *model.NavigationContext, e model.Entries)
}

// Name returns the step name.
func (s *ContentStep) Name() string { return s.name }

// Do fetches the page behind the discovered link.
func (s *ContentStep) Do(ctx context.Context, nav *model.NavigationContext) error {
	path, ok := nav.Links[s.label]
	if !ok {
		return fmt.Errorf("%w: %q", extract.ErrLinkNotFound, s.label)
	}

	var query url.Values
	if s.variant == model.VariantJSONP {
		query = url.Values{callbackParam: {s.callback}}
	}
	res, err := s.get(ctx, nav, path, nav.LastURL, query)
	if err != nil {
		return err
	}
	page := string(res.Body)
	if strings.TrimSpace(page) == "" {
		return &PageShapeError{Step: s.name}
	}

	var entries model.Entries
	if s.variant == model.VariantJSONP {
		records, err := extract.RecordList(s.callback, page, recordsField)
		if err != nil {
			return err
		}
		entries = model.Entries{Records: records, Fields: s.fields}
	} else {
		markup, err := s.container(page)
		if err != nil {
			return err
		}
		rows, err := s.parse(markup)
		if err != nil {
			return err
		}
		entries = model.Entries{Rows: rows}
	}

	s.store(nav, entries)
	s.logger.Debug("entries extracted", "step", s.name, "count", entries.Len())
	return nil
}

func newIllegalProgramsStep(f *fetcher, variant model.Variant) *ContentStep {
	return &ContentStep{
		fetcher:  f,
		name:     StepIllegalPrograms,
		label:    IllegalProgramsLabel,
		variant:  variant,
		callback: illegalProgramsCallback,
		fields:   illegalProgramFields,
		container: func(page string) (string, error) {
			return section(StepIllegalPrograms, page, tableOpen, "table", "<table")
		},
		parse: extract.TableRows,
		store: func(nav *model.NavigationContext, e model.Entries) {
			nav.Result.IllegalPrograms = e
		},
	}
}

func newAnnouncementsStep(f *fetcher, variant model.Variant) *ContentStep {
	return &ContentStep{
		fetcher:  f,
		name:     StepAnnouncements,
		label:    AnnouncementsLabel,
		variant:  variant,
		callback: announcementsCallback,
		fields:   announcementFields,
		container: func(page string) (string, error) {
			return section(StepAnnouncements, page, listOpen, "ul", `<ul class="title_list">`)
		},
		parse: extract.ListItems,
		store: func(nav *model.NavigationContext, e model.Entries) {
			nav.Result.Announcements = e
		},
	}
}

// section maps a missing container to a page shape failure of step.
func section(step, page string, open *regexp.Regexp, tag, marker string) (string, error) {
	markup, err := extract.Section(page, open, tag)
	if errors.Is(err, extract.ErrSectionNotFound) {
		return "", &PageShapeError{Step: step, Marker: marker}
	}
	return markup, err
}
