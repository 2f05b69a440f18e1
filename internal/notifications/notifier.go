package notifications

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"catalog-fulfillment/internal/catalog"
)

// Notifier turns domain events into customer and operator notifications.
// Delivery is a structured log line for now.
type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

func (n *Notifier) Handle(body []byte) error {
	var event catalog.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	switch event.EventType {
	case catalog.EventProductSaved, catalog.EventProductDeleted:
		n.logger.Info("catalog notification",
			"event_type", event.EventType,
			"product_id", event.ProductID,
			"name", event.Name,
			"timestamp", event.Timestamp,
		)
	case catalog.EventOrderPlaced:
		n.logger.Info("order notification",
			"event_type", event.EventType,
			"order_id", event.OrderID,
			"total", event.Total.StringFixed(2),
			"timestamp", event.Timestamp,
		)
	default:
		n.logger.Warn("unknown event type", "event_type", event.EventType)
	}

	return nil
}
