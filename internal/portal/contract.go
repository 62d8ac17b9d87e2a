package portal

import "regexp"

// DefaultOrigin is the portal the workflow logs in to unless configured.
const DefaultOrigin = "http://net.tv.cn"

// Paths.
const (
	homepagePath     = "/"
	loginFormPath    = "/right/loginForm.jsp"
	loginSubmitPath  = "/right/loginExcute.jsp"
	captchaImagePath = "/right/validateCode.jsp"
	topFramePath     = "/top.jsp"
)

// Page markers.
const (
	homepageMarker      = `<frame src="main.jsp"`
	loginFormMarker     = `loginExcute.jsp"`
	captchaMarker       = captchaImagePath
	authenticatedMarker = `/personnel/MyInfoIndex.jsp"`
)

// Login query fields.
const (
	fieldUsername = "pmail"
	fieldPassword = "pcode"
	fieldCaptcha  = "validateCode"
)

// Anchor labels of the two content pages on the top frame.
const (
	IllegalProgramsLabel = "违规节目"
	AnnouncementsLabel   = "管理动态"
)

// JSONP feed convention.
const (
	callbackParam           = "callback"
	illegalProgramsCallback = "portalwatchIllegalPrograms"
	announcementsCallback   = "portalwatchAnnouncements"
	recordsField            = "rows"
)

// Record fields shown for each JSONP feed, in display order.
var (
	illegalProgramFields = []string{"insertTime", "programName", "auditIdea"}
	announcementFields   = []string{"sendTime", "messageTitle"}
)

// Containers of the HTML content pages.
var (
	tableOpen = regexp.MustCompile(`(?i)<table\b[^>]*>`)
	listOpen  = regexp.MustCompile(`(?i)<ul\s+class\s*=\s*["']title_list["'][^>]*>`)
)

// Step names.
const (
	StepHomepage        = "homepage"
	StepLoginForm       = "login_form"
	StepCredentials     = "credentials"
	StepRedirect        = "redirect"
	StepLanding         = "landing"
	StepTopFrame        = "top_frame"
	StepIllegalPrograms = "illegal_programs"
	StepAnnouncements   = "announcements"
)
