package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/dafibh/tally/tally-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub            *websocket.Hub
	users          []string
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. When users is non-empty
// only those users may subscribe.
func NewWebSocketHandler(hub *websocket.Hub, users []string, allowedOrigins []string) *WebSocketHandler {
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		users:          users,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /ws?user=
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	user := strings.TrimSpace(c.QueryParam("user"))
	if user == "" {
		log.Debug().Msg("WebSocket connection rejected: missing user")
		return echo.NewHTTPError(http.StatusBadRequest, "missing user")
	}
	if len(h.users) > 0 && !slices.Contains(h.users, user) {
		log.Debug().Str("user", user).Msg("WebSocket connection rejected: unknown user")
		return echo.NewHTTPError(http.StatusBadRequest, "unknown user")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	subscriber := websocket.NewSubscriber(conn, user, h.hub)

	log.Info().
		Str("user", user).
		Str("subscriber_id", subscriber.ID()).
		Msg("Event stream subscriber connected")

	go subscriber.Serve()

	return nil
}
