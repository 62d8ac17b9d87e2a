package captcha

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/nao1215/portalwatch/internal/extract"
)

// InvalidCodeMarker is the portal's message for a wrong verification code.
const InvalidCodeMarker = "验证码错误"

// unknownError is the rejection message used when the portal gave no banner.
const unknownError = "unknown error"

var errorBanner = regexp.MustCompile(`(?is)<font\s+color\s*=\s*["']?red["']?[^>]*>(.*?)</font\s*>`)

// Kind tags a Verdict.
type Kind int

const (
	// Accepted means the portal redirected after the submission.
	Accepted Kind = iota
	// InvalidCode means the verification code was wrong.
	InvalidCode
	// Rejected means the login was refused for another reason.
	Rejected
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case InvalidCode:
		return "invalid_code"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Verdict is the classified outcome of a login submission.
type Verdict struct {
	Kind Kind
	// Location is the redirect target when Kind is Accepted.
	Location string
	// Message is the portal's error text when Kind is InvalidCode or Rejected.
	Message string
}

// Classify sorts a login submission response into a Verdict.
func Classify(status int, header http.Header, body []byte) Verdict {
	if status >= 300 && status < 400 {
		if loc := header.Get("Location"); loc != "" {
			return Verdict{Kind: Accepted, Location: loc}
		}
	}

	m := errorBanner.FindSubmatch(body)
	if m == nil {
		return Verdict{Kind: Rejected, Message: unknownError}
	}
	msg := extract.CleanText(string(m[1]))
	if strings.Contains(msg, InvalidCodeMarker) {
		return Verdict{Kind: InvalidCode, Message: msg}
	}
	if msg == "" {
		msg = unknownError
	}
	return Verdict{Kind: Rejected, Message: msg}
}
