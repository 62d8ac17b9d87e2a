package notify

import (
	"fmt"
	"strings"
)

// Server is an SMTP endpoint.
type Server struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// TLS selects implicit TLS (SMTPS). When false and the port is 587 the
	// connection is upgraded with STARTTLS.
	TLS bool `yaml:"tls" json:"tls"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

var services = map[string]Server{
	"gmail":   {Host: "smtp.gmail.com", Port: 465, TLS: true},
	"qq":      {Host: "smtp.qq.com", Port: 465, TLS: true},
	"163":     {Host: "smtp.163.com", Port: 465, TLS: true},
	"126":     {Host: "smtp.126.com", Port: 465, TLS: true},
	"outlook": {Host: "smtp-mail.outlook.com", Port: 587},
	"hotmail": {Host: "smtp-mail.outlook.com", Port: 587},
	"yahoo":   {Host: "smtp.mail.yahoo.com", Port: 465, TLS: true},
	"exmail":  {Host: "smtp.exmail.qq.com", Port: 465, TLS: true},
}

// LookupService returns the SMTP server of a well-known mail service.
// Names are case-insensitive.
func LookupService(name string) (Server, error) {
	s, ok := services[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Server{}, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return s, nil
}
