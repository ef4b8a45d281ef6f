package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventMessage carries a rendered chat or notice line.
	EventMessage EventKind = iota
	// EventControl carries a server-generated control payload such as
	// "topic:<text>" or "continuityToken:<token>".
	EventControl
)

// Control payload prefixes.
const (
	ControlTopic           = "topic:"
	ControlContinuityToken = "continuityToken:"
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	HTML    string // EventMessage: escaped, display-ready line
	Code    string // EventMessage: error code when the line reports a failure
	Control string // EventControl: raw payload, never escaped
}

func messageEvent(html string) *Event {
	return &Event{Kind: EventMessage, HTML: html}
}

func controlEvent(payload string) *Event {
	return &Event{Kind: EventControl, Control: payload}
}
