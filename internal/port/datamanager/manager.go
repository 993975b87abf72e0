// Package datamanager defines the port for moving environment content.
package datamanager

import "context"

// Manager copies and removes the content tagged with an environment id.
// CopyEnvironment must be safe to retry: copying twice leaves one copy.
type Manager interface {
	CopyEnvironment(ctx context.Context, from, to string) error
	DeleteEnvironment(ctx context.Context, environmentID string) error
}
