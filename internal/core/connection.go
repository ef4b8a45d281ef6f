package core

import (
	"sort"
	"time"

	"github.com/vovakirdan/espachat/internal/utils"
)

// Connection is the ephemeral identity bound to one live client.
type Connection struct {
	ID      string
	IP      string
	Name    string
	Color   string
	Account string // name of the account bound by login or createUser, "" for guests
	Admin   bool   // set only by an admin login or a live promotion

	client      *Client
	tokenIssued time.Time
}

// bind ties the connection to an account. The session admin flag follows
// the new account.
func (c *Connection) bind(account string, admin bool) {
	c.Account = account
	c.Admin = account != "" && admin
}

// Registry maps connection ids to their identities.
type Registry struct {
	conns map[string]*Connection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add inserts conn. It reports false if the id is already registered.
func (r *Registry) Add(conn *Connection) bool {
	if _, exists := r.conns[conn.ID]; exists {
		return false
	}
	r.conns[conn.ID] = conn
	return true
}

// Remove deletes the connection and returns it.
func (r *Registry) Remove(id string) (*Connection, bool) {
	conn, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	delete(r.conns, id)
	return conn, true
}

// Get returns the connection registered under id.
func (r *Registry) Get(id string) *Connection {
	return r.conns[id]
}

// ByName returns the live connection whose display name matches, ignoring case.
func (r *Registry) ByName(name string) *Connection {
	folded := utils.FoldName(name)
	for _, conn := range r.conns {
		if utils.FoldName(conn.Name) == folded {
			return conn
		}
	}
	return nil
}

// BoundTo returns the connections bound to the named account.
func (r *Registry) BoundTo(account string) []*Connection {
	var out []*Connection
	for _, conn := range r.conns {
		if conn.Account != "" && utils.SameName(conn.Account, account) {
			out = append(out, conn)
		}
	}
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

// Sorted returns all connections ordered by folded display name.
func (r *Registry) Sorted() []*Connection {
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	sort.Slice(out, func(i, j int) bool {
		return utils.FoldName(out[i].Name) < utils.FoldName(out[j].Name)
	})
	return out
}
