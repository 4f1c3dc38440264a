package service

// Event types broadcast to websocket subscribers.
const (
	EventCustomerCreated    = "customer.created"
	EventCustomerUpdated    = "customer.updated"
	EventCustomerDeleted    = "customer.deleted"
	EventProductTypeCreated = "product_type.created"
	EventProductReserved    = "product.reserved"
	EventProductUpdated     = "product.updated"
	EventProductDeleted     = "product.deleted"
)

// EventPublisher is implemented by ws.Hub.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

type NopPublisher struct{}

func (NopPublisher) Publish(string, interface{}) {}
