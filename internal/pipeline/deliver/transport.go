// Package deliver hands composed messages to an outbound mail transport.
package deliver

import (
	"context"

	"pdf-relay/internal/models"
)

// Transport sends one message. Implementations report raw errors; the
// pipeline boundary maps them to TRANSPORT_FAILED and keeps details out of
// the HTTP response.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg *models.OutboundMessage) error
}
