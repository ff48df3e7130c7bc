package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubject is where cart alerts are published for the storefront UI.
const DefaultSubject = "storefront.cart.notifications"

// Publisher is the part of *nats.Conn used to emit alerts.
type Publisher interface {
	Publish(subj string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// Notification is the payload published for every alert.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// NatsNotifier publishes alerts to a NATS subject.
type NatsNotifier struct {
	publisher Publisher
	subject   string
	logger    *zap.Logger
	now       func() time.Time
}

func NewNatsNotifier(publisher Publisher, subject string, logger *zap.Logger) *NatsNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NatsNotifier{
		publisher: publisher,
		subject:   subject,
		logger:    logger,
		now:       time.Now,
	}
}

func (n *NatsNotifier) Notify(_ context.Context, message string) {
	data, err := json.Marshal(Notification{
		ID:        uuid.NewString(),
		Message:   message,
		CreatedAt: n.now().UTC(),
	})
	if err != nil {
		n.logger.Error("Failed to marshal notification", zap.Error(err))
		return
	}

	if err = n.publisher.Publish(n.subject, data); err != nil {
		n.logger.Error("Failed to publish notification",
			zap.Error(err),
			zap.String("subject", n.subject),
			zap.String("message", message))
	}
}
