package mailer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		From:     "no-reply@storefront.local",
		FromName: "Storefront",
		TLS:      true,
	}
}

func TestBuildMessage(t *testing.T) {
	t.Parallel()
	msg, err := buildMessage(testSMTPConfig(), Message{
		To:      "buyer@example.com",
		ToName:  "Asha",
		Subject: "Your delivery code",
		HTML:    "<p>code</p>",
	})
	require.NoError(t, err)

	rcpts, err := msg.GetRecipients()
	require.NoError(t, err)
	require.Equal(t, []string{"<buyer@example.com>"}, rcpts)
	require.Equal(t, []string{"Your delivery code"}, msg.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "text/html")
	require.Contains(t, buf.String(), "buyer@example.com")
}

func TestBuildMessageRejectsMissingRecipient(t *testing.T) {
	t.Parallel()
	_, err := buildMessage(testSMTPConfig(), Message{Subject: "x"})
	require.Error(t, err)

	_, err = buildMessage(testSMTPConfig(), Message{To: "not-an-address"})
	require.Error(t, err)
}

func TestNewFallsBackToLogSender(t *testing.T) {
	t.Parallel()
	sender := New(config.SMTPConfig{}, logger.Nop())
	require.IsType(t, &LogSender{}, sender)
	require.NoError(t, sender.Send(context.Background(), Message{To: "a@b.co", Subject: "s"}))
	require.Error(t, sender.Send(context.Background(), Message{}))

	require.IsType(t, &SMTPSender{}, New(testSMTPConfig(), nil))
}

func TestClientOptionsAuthOnlyWithUsername(t *testing.T) {
	t.Parallel()
	s := NewSMTPSender(testSMTPConfig())
	require.Len(t, s.clientOptions(), 2)

	cfg := testSMTPConfig()
	cfg.Username = "mailer"
	require.Len(t, NewSMTPSender(cfg).clientOptions(), 5)
}
