package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsDriver(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMailNotConfigured)

	_, err = New(Config{Driver: "mailgun", FromAddress: "a@b.c"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	p, err := New(Config{Host: "smtp.local", Port: 25, FromAddress: "noreply@pos.test"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPProvider{}, p)

	p, err = New(Config{Driver: "Resend", APIKey: "re_test", FromAddress: "noreply@pos.test"})
	require.NoError(t, err)
	assert.IsType(t, &ResendProvider{}, p)
}

func TestWelcomeMessage(t *testing.T) {
	msg, err := WelcomeMessage("owner@acme.test", WelcomeData{
		SiteTitle: "PosSaaS",
		Name:      "Jane",
		Email:     "owner@acme.test",
		Password:  "s3cret<>",
		LoginURL:  "https://acme.pos.test/login",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"owner@acme.test"}, msg.To)
	assert.Equal(t, "Welcome to PosSaaS", msg.Subject)
	assert.Contains(t, msg.HTML, "https://acme.pos.test/login")
	assert.Contains(t, msg.HTML, "s3cret&lt;&gt;")
}
