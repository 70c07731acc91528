package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/orbit-admin-api/internal/middleware"
	"github.com/noah-isme/orbit-admin-api/internal/service"
)

const (
	eventWriteTimeout = 10 * time.Second
	eventPingInterval = 30 * time.Second
)

// AdminEventHandler streams admin events to dashboard websocket clients.
type AdminEventHandler struct {
	service service.EventService
	logger  zerolog.Logger
}

// NewAdminEventHandler creates the handler.
func NewAdminEventHandler(service service.EventService, logger zerolog.Logger) *AdminEventHandler {
	return &AdminEventHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_event_handler").Logger(),
	}
}

// Register binds the websocket upgrade under the provided router group.
func (h *AdminEventHandler) Register(router fiber.Router) {
	router.Use("/ws", middleware.WithAuth(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, middleware.AuthOptions{Roles: middleware.ApplicantsRoles}))

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *AdminEventHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(string)
	logger := h.logger.With().Str("user_id", userID).Logger()

	events, unsubscribe := h.service.Subscribe()
	defer unsubscribe()

	// The read loop only detects client disconnects; inbound frames are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(eventPingInterval)
	defer ticker.Stop()

	logger.Info().Msg("admin event stream connected")
	defer logger.Info().Msg("admin event stream disconnected")

	for {
		select {
		case event, ok := <-events:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream closed"))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("failed to write admin event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteTimeout)); err != nil {
				logger.Debug().Err(err).Msg("failed to ping admin event client")
				return
			}
		case <-closed:
			return
		}
	}
}
