package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/portalwatch/internal/model"
	"github.com/nao1215/portalwatch/internal/notify"
	"github.com/nao1215/portalwatch/internal/portal"
	"github.com/nao1215/portalwatch/internal/transport"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "portalwatch"

	// DefaultOrigin is the portal the workflow logs into.
	DefaultOrigin = portal.DefaultOrigin

	// DefaultVariant reads the content pages as HTML.
	DefaultVariant = string(model.VariantHTML)

	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultCaptchaAttempts is how many recognitions are tried before giving up.
	DefaultCaptchaAttempts = 3

	// DefaultCaptchaTimeout bounds a single OCR command run.
	DefaultCaptchaTimeout = 20 * time.Second
)

// Config holds one profile: the account to log in with and how to reach
// the portal and report the result.
type Config struct {
	Account   Account `yaml:"account" json:"account"`
	Portal    Portal  `yaml:"portal" json:"portal"`
	HTTP      HTTP    `yaml:"http" json:"http"`
	UserAgent string  `yaml:"userAgent" json:"userAgent"`
	Captcha   Captcha `yaml:"captcha" json:"captcha"`
	Mail      Mail    `yaml:"mail" json:"mail"`
	History   History `yaml:"history" json:"history"`
}

// Account is the portal login.
type Account struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Portal selects the portal and how its content pages are read.
type Portal struct {
	// Origin is the scheme and host of the portal.
	Origin string `yaml:"origin" json:"origin"`

	// Variant is "html" or "jsonp".
	Variant string `yaml:"variant" json:"variant"`
}

// HTTP tunes the session.
type HTTP struct {
	// SocksProxy routes every connection through a SOCKS proxy,
	// for example "socks5://127.0.0.1:1080".
	SocksProxy string `yaml:"socksProxy" json:"socksProxy"`

	Timeout Duration `yaml:"timeout" json:"timeout"`

	// RequestDelay is the minimum delay between two requests.
	RequestDelay Duration `yaml:"requestDelay" json:"requestDelay"`

	// Charset forces the decoding of text responses.
	Charset string `yaml:"charset" json:"charset"`
}

// Captcha configures image verification at login.
type Captcha struct {
	// Enabled forces captcha solving even when the login form does not ask for it.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// OCRCommand reads the image on stdin and prints the code.
	OCRCommand string `yaml:"ocrCommand" json:"ocrCommand"`

	MaxAttempts int      `yaml:"maxAttempts" json:"maxAttempts"`
	Timeout     Duration `yaml:"timeout" json:"timeout"`
}

// Mail is where reports are sent. An empty receiver disables mail.
type Mail struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`

	// Service names a well-known provider such as "qq" or "gmail".
	Service string `yaml:"service" json:"service"`

	// SMTP is used when Service is empty.
	SMTP SMTP `yaml:"smtp" json:"smtp"`

	Sender string `yaml:"sender" json:"sender"`

	// Receiver is a comma separated address list.
	Receiver string `yaml:"receiver" json:"receiver"`
}

// SMTP is an explicit mail server.
type SMTP struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
	TLS  bool   `yaml:"tls" json:"tls"`
}

// History configures the run database.
type History struct {
	// Dir holds the SQLite file. Defaults to the XDG data directory.
	Dir string `yaml:"dir" json:"dir"`

	Disabled bool `yaml:"disabled" json:"disabled"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Portal: Portal{
			Origin:  DefaultOrigin,
			Variant: DefaultVariant,
		},
		HTTP: HTTP{
			Timeout: Duration(DefaultTimeout),
		},
		UserAgent: transport.DefaultUserAgent,
		Captcha: Captcha{
			MaxAttempts: DefaultCaptchaAttempts,
			Timeout:     Duration(DefaultCaptchaTimeout),
		},
		History: History{
			Dir: XDGDataDir(),
		},
	}
}

// XDGDataDir returns the XDG data directory for portalwatch.
// On Linux: ~/.local/share/portalwatch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for portalwatch.
// On Linux: ~/.config/portalwatch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// OriginURL parses Portal.Origin.
func (c *Config) OriginURL() (*url.URL, error) {
	u, err := url.Parse(strings.TrimRight(c.Portal.Origin, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, c.Portal.Origin)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host}, nil
}

// Credentials returns the portal account.
func (c *Config) Credentials() model.Credentials {
	return model.Credentials{Username: c.Account.Username, Password: c.Account.Password}
}

// Profile names this configuration as "username@host".
func (c *Config) Profile() string {
	host := c.Portal.Origin
	if u, err := c.OriginURL(); err == nil {
		host = u.Host
	}
	return model.ProfileName(c.Account.Username, host)
}

// MailEnabled reports whether reports should be mailed.
func (c *Config) MailEnabled() bool {
	return strings.TrimSpace(c.Mail.Receiver) != ""
}

// MailConfig converts the mail section for the notifier.
func (c *Config) MailConfig() notify.MailConfig {
	return notify.MailConfig{
		Username: c.Mail.Username,
		Password: c.Mail.Password,
		Service:  c.Mail.Service,
		Server: notify.Server{
			Host: c.Mail.SMTP.Host,
			Port: c.Mail.SMTP.Port,
			TLS:  c.Mail.SMTP.TLS,
		},
		Sender:    c.Mail.Sender,
		Receivers: []string{c.Mail.Receiver},
	}
}

// Validate checks if the configuration is valid.
// It returns the first error found.
func (c *Config) Validate() error {
	if c.Credentials().Empty() {
		return ErrNoAccount
	}

	if _, err := c.OriginURL(); err != nil {
		return err
	}

	if !model.Variant(c.Portal.Variant).Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidVariant, c.Portal.Variant)
	}

	if c.HTTP.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.HTTP.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}

	if c.HTTP.SocksProxy != "" {
		if _, err := transport.ParseProxy(c.HTTP.SocksProxy); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidProxy, err)
		}
	}

	if c.Captcha.MaxAttempts <= 0 {
		return ErrInvalidCaptchaAttempts
	}

	if c.Captcha.Enabled && strings.TrimSpace(c.Captcha.OCRCommand) == "" {
		return ErrNoOCRCommand
	}

	return c.ValidateMail()
}

// ValidateMail checks only the mail section. A profile whose other settings
// are broken can still report that through mail when this passes.
func (c *Config) ValidateMail() error {
	if !c.MailEnabled() {
		return nil
	}
	if c.Mail.Service != "" {
		if _, err := notify.LookupService(c.Mail.Service); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidMail, err)
		}
	} else if c.Mail.SMTP.Host == "" {
		return fmt.Errorf("%w: set mail.service or mail.smtp.host", ErrInvalidMail)
	}
	return nil
}
