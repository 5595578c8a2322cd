package realtime

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// RealtimeModule runs the hub for the lifetime of the application.
type RealtimeModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*RealtimeModule)(nil)
var _ mono.HealthCheckableModule = (*RealtimeModule)(nil)

// NewModule creates a new RealtimeModule.
func NewModule() *RealtimeModule {
	return &RealtimeModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *RealtimeModule) Name() string {
	return "realtime"
}

// Start starts the hub.
func (m *RealtimeModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[realtime] Module started - hub running")
	return nil
}

// Stop shuts down the hub and closes every session.
func (m *RealtimeModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[realtime] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *RealtimeModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
			"active_rooms":      m.hub.RoomCount(),
		},
	}
}

// Hub returns the hub for the websocket transport.
func (m *RealtimeModule) Hub() *Hub {
	return m.hub
}
