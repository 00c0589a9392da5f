package email

import (
	"context"
	"errors"
	"strings"
)

const (
	DriverSMTP   = "smtp"
	DriverResend = "resend"
)

var (
	ErrMailNotConfigured = errors.New("mail_not_configured")
	ErrUnsupportedDriver = errors.New("mail_driver_unsupported")
)

// Message is a single HTML mail.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// Config is the resolved mail setting. It is passed by value into New and
// never stored globally.
type Config struct {
	Driver      string
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string
	FromAddress string
	FromName    string
	APIKey      string
}

// Configured reports whether the config names a usable transport.
func (c Config) Configured() bool {
	if strings.TrimSpace(c.FromAddress) == "" {
		return false
	}
	switch c.normalizedDriver() {
	case DriverSMTP:
		return strings.TrimSpace(c.Host) != "" && c.Port > 0
	case DriverResend:
		return strings.TrimSpace(c.APIKey) != ""
	default:
		return false
	}
}

func (c Config) normalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return DriverSMTP
	}
	return driver
}

func (c Config) from() string {
	if name := strings.TrimSpace(c.FromName); name != "" {
		return name + " <" + strings.TrimSpace(c.FromAddress) + ">"
	}
	return strings.TrimSpace(c.FromAddress)
}

// New selects the transport for cfg.Driver.
func New(cfg Config) (Provider, error) {
	if !cfg.Configured() {
		switch cfg.normalizedDriver() {
		case DriverSMTP, DriverResend:
			return nil, ErrMailNotConfigured
		default:
			return nil, ErrUnsupportedDriver
		}
	}
	switch cfg.normalizedDriver() {
	case DriverResend:
		return NewResend(cfg), nil
	default:
		return NewSMTP(cfg), nil
	}
}
