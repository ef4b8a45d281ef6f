package core

import (
	"reflect"
	"testing"
)

func TestModerationConnBan(t *testing.T) {
	m := NewModeration()
	conn := &Connection{ID: "c1", IP: "10.0.0.1"}

	if !m.CanSend(conn) {
		t.Fatalf("fresh connection must be allowed to send")
	}

	m.BanConn("c1")
	if m.CanSend(conn) {
		t.Fatalf("banned connection must not send")
	}
	if !m.UnbanConn("c1") {
		t.Fatalf("expected unban to report a lifted flag")
	}
	if m.UnbanConn("c1") {
		t.Fatalf("second unban must report nothing lifted")
	}
	if !m.CanSend(conn) {
		t.Fatalf("unbanned connection must send again")
	}
}

func TestModerationIPBan(t *testing.T) {
	m := NewModeration()
	guest := &Connection{ID: "c1", IP: "10.0.0.1"}
	admin := &Connection{ID: "c2", IP: "10.0.0.1", Account: "Boss", Admin: true}

	m.BanIP("10.0.0.1", "Max")
	m.BanIP("10.0.0.1", "Max")
	m.BanIP("", "Max")
	m.BanIP("10.0.0.2", "Erika")

	if got := m.BannedIPs(); !reflect.DeepEqual(got, []string{"10.0.0.1", "10.0.0.2"}) {
		t.Fatalf("blocklist = %v", got)
	}
	if m.CanSend(guest) {
		t.Fatalf("guest on blocked address must not send")
	}
	if !m.CanSend(admin) {
		t.Fatalf("admin on blocked address must still send")
	}
	if m.IPBanned("") {
		t.Fatalf("empty address must never count as banned")
	}
}

func TestModerationLiftIPs(t *testing.T) {
	m := NewModeration()
	m.BanIP("10.0.0.1", "Max")
	m.BanIP("10.0.0.2", "Erika")
	m.BanIP("10.0.0.3", "max")

	if lifted := m.LiftIPs("MAX"); lifted != 2 {
		t.Fatalf("lifted = %d, want 2", lifted)
	}
	if got := m.BannedIPs(); !reflect.DeepEqual(got, []string{"10.0.0.2"}) {
		t.Fatalf("blocklist = %v", got)
	}
	if lifted := m.LiftIPs("Niemand"); lifted != 0 {
		t.Fatalf("lifted = %d, want 0", lifted)
	}
}
