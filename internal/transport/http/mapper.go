package http

import (
	"encoding/json"

	"github.com/vovakirdan/espachat/internal/core"
	"github.com/vovakirdan/espachat/internal/proto"
)

const (
	errCodeBadRequest  = "bad_request"
	errCodeUnknownType = "unknown_type"
	errCodeRateLimited = "rate_limited"
)

// inboundText extracts the typed line from an inbound frame. A malformed
// frame yields a protocol error for the client instead of closing the socket.
func inboundText(inbound proto.Inbound) (string, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return "", &proto.Error{Code: errCodeBadRequest, Msg: "invalid message payload"}
		}
		return msg.Text, nil
	default:
		return "", &proto.Error{Code: errCodeUnknownType, Msg: "unknown message type"}
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventControl:
		return proto.Outbound{
			Type: proto.OutboundTypeSystem,
			Data: event.Control,
		}
	default:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			HTML: event.HTML,
			Code: event.Code,
		}
	}
}
