package core

import "github.com/vovakirdan/espachat/internal/utils"

// Moderation holds ban state that is not tied to an account: per-connection
// ban flags and the process-wide IP blocklist.
type Moderation struct {
	banned map[string]struct{} // connection ids
	ips    []string
	origin map[string]string // ip -> folded name whose ban added it
}

// NewModeration creates empty moderation state.
func NewModeration() *Moderation {
	return &Moderation{
		banned: make(map[string]struct{}),
		origin: make(map[string]string),
	}
}

// CanSend reports whether conn may submit text or commands.
func (m *Moderation) CanSend(conn *Connection) bool {
	if m.ConnBanned(conn.ID) {
		return false
	}
	return !(m.IPBanned(conn.IP) && !conn.Admin)
}

// BanConn marks a live connection as banned.
func (m *Moderation) BanConn(id string) {
	m.banned[id] = struct{}{}
}

// UnbanConn clears the connection flag and reports whether it was set.
func (m *Moderation) UnbanConn(id string) bool {
	if _, ok := m.banned[id]; !ok {
		return false
	}
	delete(m.banned, id)
	return true
}

// ConnBanned reports whether the connection carries a ban flag.
func (m *Moderation) ConnBanned(id string) bool {
	_, ok := m.banned[id]
	return ok
}

// BanIP appends ip to the blocklist, remembering which name caused it.
func (m *Moderation) BanIP(ip, name string) {
	if ip == "" {
		return
	}
	m.origin[ip] = utils.FoldName(name)
	if m.IPBanned(ip) {
		return
	}
	m.ips = append(m.ips, ip)
}

// IPBanned reports whether ip is on the blocklist.
func (m *Moderation) IPBanned(ip string) bool {
	if ip == "" {
		return false
	}
	for _, banned := range m.ips {
		if banned == ip {
			return true
		}
	}
	return false
}

// LiftIPs removes the addresses banned on behalf of name and returns how many.
func (m *Moderation) LiftIPs(name string) int {
	folded := utils.FoldName(name)
	kept := m.ips[:0]
	lifted := 0
	for _, ip := range m.ips {
		if m.origin[ip] == folded {
			delete(m.origin, ip)
			lifted++
			continue
		}
		kept = append(kept, ip)
	}
	m.ips = kept
	return lifted
}

// BannedIPs returns a copy of the blocklist in ban order.
func (m *Moderation) BannedIPs() []string {
	out := make([]string, len(m.ips))
	copy(out, m.ips)
	return out
}
