package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/config"
	"github.com/vovakirdan/espachat/internal/core"
	"github.com/vovakirdan/espachat/internal/proto"
	"github.com/vovakirdan/espachat/internal/utils"
)

// tokenQueryParam carries a continuity token for clients without cookies.
const tokenQueryParam = "token"

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub ChatHub
	cfg *config.Config
	log *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub ChatHub, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, cfg: cfg, log: logger}
}

// Handle serves GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	opts := &websocket.AcceptOptions{OriginPatterns: h.cfg.OriginPatterns}
	if len(h.cfg.OriginPatterns) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		h.log.Error().Err(err).Str("ip", c.ClientIP()).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(utils.NewID(), c.ClientIP())
	h.hub.Connect(client, continuityToken(c.Request, h.cfg.Session.CookieName))
	defer h.hub.Disconnect(client)

	h.log.Debug().Str("conn_id", client.ID).Str("ip", client.IP).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", client.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// continuityToken reads the token from the session cookie, falling back to
// the query string.
func continuityToken(r *stdhttp.Request, cookieName string) string {
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return r.URL.Query().Get(tokenQueryParam)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	limiter := newRateLimiter(h.cfg.RateLimitPerMinute)

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("read ws inbound")
			return err
		}

		if !limiter.allow() {
			h.log.Warn().Str("conn_id", client.ID).Str("ip", client.IP).Msg("rate limit exceeded")
			if err := writeProtoError(ctx, conn, &proto.Error{Code: errCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		text, protoErr := inboundText(inbound)
		if protoErr != nil {
			h.log.Debug().Str("conn_id", client.ID).Str("type", inbound.Type).Str("code", protoErr.Code).Msg("rejected inbound frame")
			if err := writeProtoError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		h.hub.Submit(client, text)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Debug().Err(err).Str("conn_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeProtoError(ctx context.Context, conn *websocket.Conn, protoErr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: protoErr,
	})
}
