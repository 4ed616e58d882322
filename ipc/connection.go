package ipc

import (
	"log/slog"

	"github.com/google/uuid"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one host bridge talking to the controller. Each player
// session gets its own connection, identified after the hello handshake.
type Connection struct {
	ID       string
	framer   Framer
	handlers map[string]Handler
	Player   string
}

func NewConnection(f Framer, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		ID:       uuid.NewString(),
		framer:   f,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.framer.WriteEnvelope(env)
}

// ReadLoop blocks until the connection closes or errors. It owns the framer
// lifetime so callers don't need to track cleanup.
func (c *Connection) ReadLoop() {
	defer c.framer.Close()
	slog.Info("connection opened", "session", c.ID, "remote", c.framer.RemoteAddr())

	for {
		env, err := c.framer.ReadEnvelope()
		if err != nil {
			slog.Info("connection read ended", "session", c.ID, "player", c.Player, "error", err)
			return
		}

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			slog.Error("handler error", "type", env.Type, "error", err)
			continue
		}

		if resp != nil {
			if err := c.framer.WriteEnvelope(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "type", resp.Type, "player", c.Player)
		}
	}
}
