package core

// clientBuffer is the number of events queued for a slow client before drops.
const clientBuffer = 64

// Client is a physical connection as seen by the core layer.
type Client struct {
	ID     string
	IP     string
	Events chan *Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(id, ip string) *Client {
	return &Client{
		ID:     id,
		IP:     ip,
		Events: make(chan *Event, clientBuffer),
	}
}

// deliver queues ev without blocking. It reports false when the buffer is full.
func (c *Client) deliver(ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
