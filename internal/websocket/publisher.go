package websocket

import (
	"github.com/google/uuid"
	"github.com/ledgerline/ledgerline-backend/internal/domain"
)

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to all clients connected for the specified user
	Publish(userID uuid.UUID, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the user's clients
func (h *Hub) Publish(userID uuid.UUID, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID uuid.UUID, event Event) {}

// BudgetAlertPayload is the payload carried by budget.alert events
type BudgetAlertPayload struct {
	Budget *domain.Budget    `json:"budget"`
	Level  domain.AlertLevel `json:"level"`
}

// Notifier adapts an EventPublisher to the alert hook the transaction
// service fires when a budget crosses a warning or critical threshold
type Notifier struct {
	publisher EventPublisher
}

// NewNotifier creates a Notifier backed by the given publisher
func NewNotifier(publisher EventPublisher) *Notifier {
	return &Notifier{publisher: publisher}
}

// PublishBudgetAlert broadcasts a budget.alert event to the user's clients
func (n *Notifier) PublishBudgetAlert(userID uuid.UUID, budget *domain.Budget, level domain.AlertLevel) {
	n.publisher.Publish(userID, BudgetAlert(BudgetAlertPayload{Budget: budget, Level: level}))
}
