package broadcaster

import (
	"context"
	"time"
)

// RunHeartbeat emits toHeartbeat(), via send, to every connected user every
// HeartbeatInterval until ctx is canceled. Callers typically run this once
// per Broadcaster instance in its own goroutine.
func RunHeartbeat[K comparable, E any](ctx context.Context, b *Broadcaster[K, E], toHeartbeat func() E) {
	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			event := toHeartbeat()
			for _, user := range b.ConnectedUsers() {
				b.Broadcast(user, event)
			}
		}
	}
}
