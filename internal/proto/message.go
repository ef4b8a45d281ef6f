package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeMessage = "message"

	OutboundTypeMessage = "message"
	OutboundTypeSystem  = "system"
	OutboundTypeError   = "error"
)

// MessageData carries one line typed by the user: chat text or a slash command.
type MessageData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
//
// "message" carries a rendered HTML line, optionally tagged with the code of
// the failed operation. "system" carries a control payload such as
// "topic:..." or "continuityToken:..." in Data. "error" reports protocol
// failures of the envelope itself.
type Outbound struct {
	Type  string `json:"type"`
	HTML  string `json:"html,omitempty"`
	Code  string `json:"code,omitempty"`
	Data  string `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
