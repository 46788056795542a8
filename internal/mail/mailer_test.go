package mail

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_Build(t *testing.T) {
	mailer := NewSMTPMailer("smtp.example.com", 587, "board@example.com", "secret", "")
	msg := PasswordResetMessage("alice@example.com", "http://localhost:3000/reset-password?token=abc")

	gm := mailer.build(msg)

	assert.Equal(t, []string{"board@example.com"}, gm.GetHeader("From"))
	assert.Equal(t, []string{"alice@example.com"}, gm.GetHeader("To"))
	assert.Equal(t, []string{"Password Reset Request"}, gm.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := gm.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reset-password?token")
}

func TestSMTPMailer_SendHonoursCancelledContext(t *testing.T) {
	mailer := NewSMTPMailer("127.0.0.1", 1, "", "", "board@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mailer.Send(ctx, Message{To: "x@example.com", Subject: "s", HTMLBody: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}
