// ABOUTME: Event sink forwarding pipeline events to connected MCP clients
// ABOUTME: Each event becomes a notifications/chunkstream/<kind> notification
package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/harper/chunkstream/internal/models"
)

// NotificationPrefix is prepended to the event kind to form the method name
const NotificationPrefix = "notifications/chunkstream/"

// notifier is satisfied by *server.MCPServer
type notifier interface {
	SendNotificationToAllClients(method string, params map[string]any)
}

// NotificationSender delivers envelopes as MCP notifications
type NotificationSender struct {
	server notifier
}

// NewNotificationSender wraps an MCP server
func NewNotificationSender(server notifier) *NotificationSender {
	return &NotificationSender{server: server}
}

// SendEnvelope broadcasts env to every connected client
func (s *NotificationSender) SendEnvelope(env *models.Envelope) error {
	var payload map[string]any
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Kind, err)
	}

	params := map[string]any{
		"event": payload,
	}
	if env.SessionID != "" {
		params["session_id"] = env.SessionID
	}

	s.server.SendNotificationToAllClients(NotificationPrefix+string(env.Kind), params)
	return nil
}
