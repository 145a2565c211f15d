// internal/handlers/ws.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kofiasare/campusmart-backend/internal/config"
	"github.com/kofiasare/campusmart-backend/internal/realtime"
	"github.com/kofiasare/campusmart-backend/internal/utils"
)

// WSHandler upgrades authenticated clients to a websocket used only for
// server-pushed notifications. Clients are not expected to send application
// messages; inbound traffic is drained solely to service pong frames.
type WSHandler struct {
	registry realtime.Registry
	cfg      config.RealtimeConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(registry realtime.Registry, cfg config.RealtimeConfig) *WSHandler {
	return &WSHandler{
		registry: registry,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth replaces origin checks; the browser cannot set an
			// Authorization header on a websocket handshake.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Connect authenticates via a token query parameter and registers the
// connection for pushes. A newer connection for the same user replaces this
// one; the replaced side sees its socket closed and its read pump exit.
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.UnauthorizedResponse(c, "token query parameter is required")
		return
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid or expired token")
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid token subject")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := realtime.NewClient(userID, conn, time.Duration(h.cfg.WriteTimeout)*time.Second)
	h.registry.Register(userID, client)

	logrus.WithField("user_id", userID).Debug("Websocket connected")
	go h.readPump(userID, client)
}

func (h *WSHandler) readPump(userID uuid.UUID, client *realtime.Client) {
	conn := client.Underlying()
	pongTimeout := time.Duration(h.cfg.PongTimeout) * time.Second

	conn.SetReadLimit(h.cfg.MaxMessageBytes)
	conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	done := make(chan struct{})
	go h.pingLoop(client, done)

	defer func() {
		close(done)
		// Only deregister if this connection is still the registered one; a
		// reconnect may already have replaced it.
		h.registry.Unregister(userID, client)
		client.Close()
		logrus.WithField("user_id", userID).Debug("Websocket disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *WSHandler) pingLoop(client *realtime.Client, done <-chan struct{}) {
	ticker := time.NewTicker(time.Duration(h.cfg.PingInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Ping(); err != nil {
				return
			}
		}
	}
}
