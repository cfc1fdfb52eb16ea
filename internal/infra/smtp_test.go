package infra

import (
	"errors"
	"net/smtp"
	"testing"
	"time"

	"maintrack/internal/config"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailerSendNotification(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUser: "noreply@example.com"}, nil)
	var got *email.Email
	var gotAddr string
	m.send = func(e *email.Email, addr string, _ smtp.Auth) error {
		got, gotAddr = e, addr
		return nil
	}

	require.NoError(t, m.SendNotification("ana@example.com", "New maintenance", "EQ-01 serviced"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, got.To)
	assert.Equal(t, "noreply@example.com", got.From)
	assert.Equal(t, "EQ-01 serviced", string(got.Text))
}

func TestMailerRejectsEmptyRecipient(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.example.com"}, nil)
	assert.Error(t, m.SendNotification("", "s", "b"))
}

func TestMailerTripsBreaker(t *testing.T) {
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, CoolDown: time.Hour})
	m := NewMailer(&config.Config{SMTPHost: "smtp.example.com"}, cb)
	calls := 0
	m.send = func(*email.Email, string, smtp.Auth) error {
		calls++
		return errors.New("connection refused")
	}

	assert.Error(t, m.SendNotification("a@example.com", "s", "b"))
	assert.ErrorIs(t, m.SendNotification("a@example.com", "s", "b"), ErrBreakerOpen)
	assert.Equal(t, 1, calls)
	assert.True(t, m.Configured())
}
