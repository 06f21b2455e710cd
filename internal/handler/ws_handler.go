package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/quizdeck/quizdeck-backend/internal/middleware"
	"github.com/quizdeck/quizdeck-backend/internal/service"
	ws "github.com/quizdeck/quizdeck-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams live attempt state over WebSocket.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/attempt/stream
// Pushes the countdown once per second and a finalized event when the
// attempt reaches a terminal state. The client may send pings; everything
// else is ignored.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	userID := claims.UserID

	view, err := h.attemptService.GetView(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no attempt in progress"})
		return
	}
	attemptID := view.AttemptID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", userID).
		Str("attempt_id", attemptID.String()).
		Logger()
	wsLog.Info().Msg("Student connected")

	closed := make(chan struct{})
	go h.readLoop(conn, wsLog, closed)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			wsLog.Debug().Msg("Connection closed")
			return
		case <-ticker.C:
			view, err := h.attemptService.GetView(userID)
			if err != nil {
				h.sendFinalized(conn, wsLog, userID, attemptID)
				return
			}
			tick := ws.TickResponse{
				Event:            ws.EventTick,
				RemainingSeconds: view.RemainingSeconds,
				AnsweredCount:    view.AnsweredCount,
				TotalQuestions:   view.TotalQuestions,
			}
			if err := ws.WriteTyped(conn, tick); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, dropping stream")
				return
			}
		}
	}
}

// readLoop drains client messages, answering pings, until the connection
// drops.
func (h *WSHandler) readLoop(conn *websocket.Conn, wsLog zerolog.Logger, closed chan struct{}) {
	defer close(closed)
	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}
		if msg.Action == ws.ActionPing {
			_ = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		}
	}
}

// sendFinalized pushes the terminal attempt state once the session leaves
// the registry.
func (h *WSHandler) sendFinalized(conn *websocket.Conn, wsLog zerolog.Logger, userID int, attemptID uuid.UUID) {
	result, err := h.attemptService.GetResult(context.Background(), userID, attemptID)
	if err != nil {
		if !errors.Is(err, service.ErrAttemptStillOpen) {
			wsLog.Warn().Err(err).Msg("Failed to load finalized attempt")
		}
		_ = ws.WriteError(conn, "attempt closed")
		return
	}
	_ = ws.WriteTyped(conn, ws.FinalizedResponse{
		Event:   ws.EventFinalized,
		Attempt: result.Attempt,
	})
	wsLog.Info().Msg("Attempt stream finalized")
}
