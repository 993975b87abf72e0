// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Event types sent to connected admin clients.
const (
	EventEnvironmentCreated = "environment.created"
	EventEnvironmentUpdated = "environment.updated"
	EventEnvironmentDeleted = "environment.deleted"
	EventEnvironmentStatus  = "environment.status"
	EventAliasChanged       = "alias.changed"
)

// Broadcaster sends real-time events to the clients of the tenant carried by ctx.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
