package core

// unicast delivers ev to a single connection. A full buffer drops the event.
func (h *Hub) unicast(conn *Connection, ev *Event) {
	if conn == nil || conn.client == nil {
		return
	}
	if !conn.client.deliver(ev) {
		h.log.Debug().
			Str("conn_id", conn.ID).
			Str("user", conn.Name).
			Msg("dropping event for slow client")
	}
}

// broadcast delivers ev to every live connection.
func (h *Hub) broadcast(ev *Event) {
	for _, conn := range h.registry.conns {
		h.unicast(conn, ev)
	}
}
