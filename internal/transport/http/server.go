package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/config"
	"github.com/vovakirdan/espachat/internal/core"
)

// ChatHub is the part of the core hub the transport talks to.
type ChatHub interface {
	Connect(client *core.Client, token string)
	Submit(client *core.Client, text string)
	Disconnect(client *core.Client)
	RoomInfo(ctx context.Context) (core.RoomInfo, error)
}

// NewServer builds an HTTP server with the health, room and WebSocket routes.
func NewServer(hub ChatHub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	// Client addresses feed the IP blocklist, so forwarded headers are ignored.
	_ = router.SetTrustedProxies(nil)
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	room := NewRoomHandlers(hub, logger)
	router.GET("/api/room", room.GetRoom)

	ws := NewWSHandler(hub, cfg, logger)
	router.GET("/ws", ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
