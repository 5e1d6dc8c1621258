package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-api/internal/platform/events"
	"github.com/georgemunganga/marketplace-api/internal/platform/logging"
)

// Event types emitted after an order write commits.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
)

const postCommitTimeout = 5 * time.Second

// Event describes a committed order write.
type Event struct {
	Type           string `json:"type"`
	Order          *Order `json:"order"`
	PreviousStatus Status `json:"previous_status,omitempty"`
	ActorID        string `json:"actor_id"`
}

// PostCommitTask runs after the order transaction commits. Its failure is
// logged and never reaches the caller.
type PostCommitTask interface {
	Name() string
	Run(ctx context.Context, event Event) error
}

// CartClearer empties a customer's cart.
type CartClearer interface {
	Clear(ctx context.Context, customerID string) error
}

// ClearCartTask empties the customer's cart once their order exists.
type ClearCartTask struct {
	Carts CartClearer
}

func (ClearCartTask) Name() string { return "clear_cart" }

func (t ClearCartTask) Run(ctx context.Context, event Event) error {
	if event.Type != EventOrderCreated {
		return nil
	}
	return t.Carts.Clear(ctx, event.Order.Customer.ID.String())
}

// PublishTask forwards every order event to the bus.
type PublishTask struct {
	Publisher events.Publisher
}

func (PublishTask) Name() string { return "publish_event" }

func (t PublishTask) Run(ctx context.Context, event Event) error {
	return t.Publisher.Publish(ctx, event.Type, event)
}

// runPostCommit detaches from the request so a disconnecting client does
// not abort work for an order that already exists.
func (s *service) runPostCommit(ctx context.Context, event Event) {
	logger := logging.FromContext(ctx, s.logger)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	for _, task := range s.tasks {
		if err := task.Run(ctx, event); err != nil {
			logger.Warn("post-commit task failed",
				zap.String("task", task.Name()),
				zap.String("event", event.Type),
				zap.String("order_id", event.Order.ID.String()),
				zap.Error(err))
		}
	}
}
