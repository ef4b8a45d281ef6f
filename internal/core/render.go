package core

import (
	"fmt"
	"html"
	"time"
)

// TimeLayout is the timestamp format shown next to chat lines.
const TimeLayout = "02.01.2006 | 15:04:05"

func chatLine(name, color string, at time.Time, text string) string {
	return fmt.Sprintf(`<span class="user-name" style="color:%s;">%s</span> <span class="time">[%s]</span> %s`,
		color, html.EscapeString(name), at.Format(TimeLayout), html.EscapeString(text))
}

func privateLine(name, color string, at time.Time, text string) string {
	return fmt.Sprintf(`<span class="user-name" style="color:%s;">🔒[PN] %s</span> <span class="time">[%s]</span> <span class="privateMSG">%s</span>`,
		color, html.EscapeString(name), at.Format(TimeLayout), html.EscapeString(text))
}

// noticeHTML wraps an already escaped message in the notice span.
func noticeHTML(msg string) string {
	return `<span class="user-action">` + msg + `</span>`
}

// noticef formats a notice line. String arguments are HTML-escaped.
func noticef(format string, args ...any) string {
	escaped := make([]any, len(args))
	for i, arg := range args {
		if s, ok := arg.(string); ok {
			escaped[i] = html.EscapeString(s)
			continue
		}
		escaped[i] = arg
	}
	return noticeHTML(fmt.Sprintf(format, escaped...))
}

// notice builds a message event from noticef.
func notice(format string, args ...any) *Event {
	return messageEvent(noticef(format, args...))
}

// errorEvent renders a CoreError for the issuing connection.
func errorEvent(err *CoreError) *Event {
	return &Event{Kind: EventMessage, HTML: noticeHTML(html.EscapeString(err.Message)), Code: err.Code}
}
