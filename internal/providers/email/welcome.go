package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var welcomeTmpl = template.Must(template.ParseFS(templateFS, "templates/welcome.html"))

// WelcomeData feeds the tenant welcome mail.
type WelcomeData struct {
	SiteTitle        string
	DevelopedBy      string
	Name             string
	CompanyName      string
	Email            string
	Password         string
	LoginURL         string
	PackageName      string
	SubscriptionType string
	ExpiryDate       string
}

func WelcomeMessage(to string, data WelcomeData) (Message, error) {
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, data); err != nil {
		return Message{}, fmt.Errorf("render welcome mail: %w", err)
	}
	subject := "Welcome"
	if data.SiteTitle != "" {
		subject = fmt.Sprintf("Welcome to %s", data.SiteTitle)
	}
	return Message{
		To:      []string{to},
		Subject: subject,
		HTML:    body.String(),
	}, nil
}
