package events

import (
	"strconv"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/google/uuid"
)

const (
	EventTypeOrderPlaced = "OrderPlaced"
	orderPlacedSchema    = "ecommerce.order.placed.v1"
)

type OrderPlacedPayload struct {
	OrderID    string            `json:"orderId"`
	UserID     string            `json:"userId"`
	TotalPrice float64           `json:"totalPrice"`
	OrderedAt  time.Time         `json:"orderedAt"`
	Items      []OrderPlacedItem `json:"items"`
}

type OrderPlacedItem struct {
	ProductID    string  `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Subtotal     float64 `json:"subtotal"`
}

type OrderPlacedEvent struct {
	EventEnvelope
	Payload OrderPlacedPayload `json:"payload"`
}

func orderPlacedPayload(o order.Order) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:    strconv.FormatInt(o.ID, 10),
		UserID:     strconv.FormatInt(o.UserID, 10),
		TotalPrice: o.TotalPrice,
		OrderedAt:  o.OrderedAt,
		Items:      make([]OrderPlacedItem, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderPlacedItem{
			ProductID:    strconv.FormatInt(it.ProductID, 10),
			ProductTitle: it.ProductTitle,
			Quantity:     it.Quantity,
			Price:        it.Price,
			Subtotal:     it.Subtotal,
		})
	}
	return p
}

func newOrderPlacedEvent(meta EventMeta, seq int64, producer string, payload OrderPlacedPayload, occurredAt time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeOrderPlaced,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			Producer:      producer,
			PartitionKey:  meta.PartitionKey,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        orderPlacedSchema,
		},
		Payload: payload,
	}
}
