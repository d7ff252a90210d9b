package websocket

// EventPublisher defines the interface for publishing events to WebSocket clients
type EventPublisher interface {
	// Publish sends an event to all clients connected for the specified user
	Publish(user string, event Event)
}

// Publish implements EventPublisher
func (h *Hub) Publish(user string, event Event) {
	h.Broadcast(user, event)
}

// NoOpPublisher discards events. Used when no hub is running.
type NoOpPublisher struct{}

// Publish implements EventPublisher
func (n *NoOpPublisher) Publish(user string, event Event) {}
