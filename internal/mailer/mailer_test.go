package mailer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beffroi/beffroi/internal/config"
	"github.com/beffroi/beffroi/internal/testutil"
)

func TestNewSelectsImplementation(t *testing.T) {
	logger := testutil.NewTestLogger(t)

	m := New(config.SMTPConfig{Enabled: false}, logger)
	assert.IsType(t, &LogMailer{}, m)

	m = New(config.SMTPConfig{Enabled: true, Host: "smtp.example.org", Port: 587}, logger)
	assert.IsType(t, &SMTPMailer{}, m)
}

func TestLogMailerNeverFails(t *testing.T) {
	m := &LogMailer{logger: testutil.NewTestLogger(t)}
	assert.NoError(t, m.Send(context.Background(), Message{To: "a@b.fr", Subject: "s", Body: "b"}))
}

func TestSMTPMailerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &SMTPMailer{cfg: config.SMTPConfig{Host: "smtp.example.org", Port: 587, From: "noreply@mairie.fr"}}
	err := m.Send(ctx, Message{To: "a@b.fr"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.Empty(t, r.Messages())
	assert.Zero(t, r.Last())

	require.NoError(t, r.Send(context.Background(), Message{To: "a@b.fr", Subject: "un"}))
	require.NoError(t, r.Send(context.Background(), Message{To: "a@b.fr", Subject: "deux"}))

	assert.Len(t, r.Messages(), 2)
	assert.Equal(t, "deux", r.Last().Subject)

	r.Reset()
	assert.Empty(t, r.Messages())
}

func TestMessageBuilders(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	msg := Verification("marie@mairie.fr", "Marie", "https://intranet/verify?token=x")
	assert.Equal(t, "marie@mairie.fr", msg.To)
	assert.Contains(t, msg.Body, "https://intranet/verify?token=x")
	assert.Contains(t, msg.Body, "24 heures")

	msg = PasswordReset("marie@mairie.fr", "Marie", "https://intranet/reset?token=y")
	assert.Contains(t, msg.Body, "1 heure")

	msg = PasswordChanged("marie@mairie.fr", "Marie", at)
	assert.Contains(t, msg.Body, "14/03/2026")

	msg = NewLogin("marie@mairie.fr", "Marie", "192.0.2.10", at)
	assert.Contains(t, msg.Body, "192.0.2.10")

	msg = Welcome("marie@mairie.fr", "Marie")
	assert.Contains(t, msg.Body, "Marie")
}
