package handler

import (
	"ai-learning-coach-be/internal/pkg/logger"
	"ai-learning-coach-be/internal/pkg/serverutils"
	internalWS "ai-learning-coach-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SessionChecker reports whether a session still exists.
type SessionChecker interface {
	Exists(sessionID string) bool
}

type DeliveryHandler struct {
	hub      *internalWS.Hub
	tokens   *serverutils.SessionTokens
	sessions SessionChecker
	logger   logger.ILogger
}

func NewDeliveryHandler(hub *internalWS.Hub, tokens *serverutils.SessionTokens, sessions SessionChecker, log logger.ILogger) *DeliveryHandler {
	return &DeliveryHandler{
		hub:      hub,
		tokens:   tokens,
		sessions: sessions,
		logger:   log,
	}
}

// ServeWs upgrades the request and streams the session's delivered chat
// messages. Browsers pass the token as ?token=, other clients may use the
// Authorization header.
func (h *DeliveryHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := serverutils.TokenFromRequest(c)
	if tokenStr == "" {
		return serverutils.NewUnauthorizedError("Missing token (Query 'token' or Header 'Authorization')")
	}

	sessionID, err := h.tokens.Parse(tokenStr)
	if err != nil {
		h.logger.Warn("DeliveryHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return serverutils.NewUnauthorizedError("Invalid token")
	}

	if h.sessions != nil && !h.sessions.Exists(sessionID) {
		return serverutils.NewNotFoundError("Session not found", nil)
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("DeliveryHandler", "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID)
		h.logger.Info("DeliveryHandler", "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *DeliveryHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
