package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RoomHandlers serves read-only room information to page renderers.
type RoomHandlers struct {
	hub ChatHub
	log *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(hub ChatHub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		hub: hub,
		log: logger,
	}
}

// RoomResponse represents the room in API responses.
type RoomResponse struct {
	Title  string `json:"title"`
	Topic  string `json:"topic"`
	Online int    `json:"online"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetRoom returns the room title, current topic and online count.
// GET /api/room
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	info, err := h.hub.RoomInfo(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read room info")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "room unavailable"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		Title:  info.Title,
		Topic:  info.Topic,
		Online: info.Online,
	})
}
