package deliver

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"pdf-relay/internal/common/logger"
	"pdf-relay/internal/models"
)

// SESAPI is the slice of the SES client this transport needs; mocked in tests.
type SESAPI interface {
	SendRawEmail(ctx context.Context, input *ses.SendRawEmailInput) (*ses.SendRawEmailOutput, error)
}

// SESTransport delivers through AWS SES. Attachments force the raw API; the
// MIME payload is identical to what the SMTP transport sends.
type SESTransport struct {
	client SESAPI
	logger logger.Logger
	now    func() time.Time
}

func NewSESTransport(client SESAPI, log logger.Logger) *SESTransport {
	return &SESTransport{
		client: client,
		logger: log,
		now:    time.Now,
	}
}

func (t *SESTransport) Name() string { return "SES" }

func (t *SESTransport) Send(ctx context.Context, msg *models.OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	if !validAddress(msg.To) {
		return fmt.Errorf("invalid 'to' email address: %s", msg.To)
	}

	payload, err := buildMIME(msg, t.now())
	if err != nil {
		return err
	}

	input := &ses.SendRawEmailInput{
		RawMessage:   &types.RawMessage{Data: payload},
		Source:       aws.String(msg.FromAddress),
		Destinations: []string{msg.To},
	}

	out, err := t.client.SendRawEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send raw email: %w", err)
	}

	t.logger.Info("email sent", map[string]interface{}{
		"to":        msg.To,
		"subject":   msg.Subject,
		"messageId": aws.ToString(out.MessageId),
		"provider":  t.Name(),
	})
	return nil
}
