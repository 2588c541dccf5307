package websockets

import (
	"context"
	"time"

	"cleanops/internal/events"
)

const AUTH_HANDSHAKE_TIMEOUT = 10 * time.Second

func (c *Client) startAuthTimeout() {
	log := c.Manager.log.Function("startAuthTimeout")

	go func() {
		time.Sleep(AUTH_HANDSHAKE_TIMEOUT)
		if c.Status != STATUS_UNAUTHENTICATED {
			return
		}

		log.Warn("Client failed to authenticate within timeout", "clientID", c.ID)
		select {
		case c.send <- newMessage(events.AUTH_FAILURE, "system", "authentication_timeout", map[string]any{
			"reason": "Authentication timeout",
		}):
			time.Sleep(100 * time.Millisecond)
		default:
		}

		if err := c.Connection.Close(); err != nil {
			log.Er("failed to close connection after auth timeout", err, "clientID", c.ID)
		}
	}()
}

func (c *Client) handleAuthResponse(message Message) {
	log := c.Manager.log.Function("handleAuthResponse")

	if c.Status != STATUS_UNAUTHENTICATED {
		log.Warn("Auth response from already authenticated client", "clientID", c.ID)
		return
	}

	token, ok := message.Data["token"].(string)
	if !ok || token == "" {
		c.sendAuthFailure("Invalid token format")
		return
	}

	actor, err := c.Manager.authService.ValidateToken(context.Background(), token)
	if err != nil {
		c.sendAuthFailure("Authentication failed")
		return
	}

	c.UserID = actor.ID
	c.Status = STATUS_AUTHENTICATED
	log.Info("Client authenticated", "clientID", c.ID, "userID", c.UserID, "role", actor.Role)

	success := newMessage(events.AUTH_SUCCESS, "system", "authenticated", map[string]any{
		"userId": c.UserID.String(),
	})
	success.UserID = c.UserID.String()
	c.send <- success
}

func (c *Client) sendAuthFailure(reason string) {
	log := c.Manager.log.Function("sendAuthFailure")

	c.send <- newMessage(events.AUTH_FAILURE, "system", "authentication_failed", map[string]any{
		"reason": reason,
	})
	log.Info("Auth failure sent, closing connection", "clientID", c.ID, "reason", reason)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = c.Connection.Close()
	}()
}

func (c *Client) sendAuthRequest() error {
	log := c.Manager.log.Function("sendAuthRequest")

	request := newMessage(events.AUTH_REQUEST, "system", "authenticate", nil)
	if err := c.Connection.WriteJSON(request); err != nil {
		return log.Err("failed to send auth request", err, "clientID", c.ID)
	}

	return nil
}

func (c *Client) handleUnauthenticatedMessage(message Message) {
	c.Manager.log.Function("handleUnauthenticatedMessage").Warn(
		"Blocking message from unauthenticated client",
		"clientID",
		c.ID,
		"type",
		message.Type,
	)

	c.send <- newMessage(events.AUTH_FAILURE, "system", "authentication_required", map[string]any{
		"reason": "Authentication required",
	})
}
