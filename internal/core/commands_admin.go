package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/auth"
	"github.com/vovakirdan/espachat/internal/store"
)

const adminHelpHTML = `<span class="user-action">Hier sind die verfügbaren Admin-Befehle:</span><br>
<span class="command">/ban &lt;Benutzername&gt;</span> - Bannt einen Benutzer.<br>
<span class="command">/unban &lt;Benutzername&gt;</span> - Hebt den Bann eines Benutzers auf.<br>
<span class="command">/setAdmin &lt;Benutzername&gt;</span> - Macht einen Benutzer zum Administrator.<br>
<span class="command">/removeAdmin &lt;Benutzername&gt;</span> - Entfernt die Administratorrechte eines Benutzers.<br>
<span class="command">/topic &lt;neues Thema&gt;</span> - Ändert das aktuelle Thema des Chats.<br>
<span class="command">/deleteUser &lt;Benutzername&gt;</span> - Benutzer aus der Datenbank entfernen.<br>
<span class="command">/dump</span> - Zeigt den aktuellen Zustand des Chats an.<br>`

func (h *Hub) cmdAdminHelp(_ context.Context, conn *Connection, _ Command) error {
	h.unicast(conn, messageEvent(adminHelpHTML))
	h.log.Debug().Str("conn_id", conn.ID).Str("user", conn.Name).Msg("admin help requested")
	return nil
}

// lookupAccount returns the named account or nil when none exists.
func (h *Hub) lookupAccount(ctx context.Context, name string) (*store.Account, error) {
	acc, err := h.accounts.Account(ctx, name)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return acc, nil
}

// accountName maps a typed name to the account it stands for. A live
// display name resolves to the account its connection is bound to.
func (h *Hub) accountName(name string) string {
	if live := h.registry.ByName(name); live != nil && live.Account != "" {
		return live.Account
	}
	return name
}

// moderationTarget is everything a typed name reaches: the account behind
// it and every live connection of that person.
type moderationTarget struct {
	display string
	account *store.Account
	conns   []*Connection
}

func (t moderationTarget) found() bool {
	return t.account != nil || len(t.conns) > 0
}

func (t moderationTarget) admin() bool {
	if t.account != nil && t.account.IsAdmin {
		return true
	}
	for _, c := range t.conns {
		if c.Admin {
			return true
		}
	}
	return false
}

// origin is the name IP bans are recorded under.
func (t moderationTarget) origin() string {
	if t.account != nil {
		return t.account.Name
	}
	return t.display
}

func (h *Hub) resolveTarget(ctx context.Context, name string) (moderationTarget, error) {
	target := moderationTarget{display: name}

	live := h.registry.ByName(name)
	if live != nil {
		target.display = live.Name
		target.conns = append(target.conns, live)
	}

	acc, err := h.lookupAccount(ctx, h.accountName(name))
	if err != nil {
		return target, err
	}
	if acc == nil {
		return target, nil
	}

	target.account = acc
	if live == nil {
		target.display = acc.Name
	}
	for _, c := range h.registry.BoundTo(acc.Name) {
		if live == nil || c.ID != live.ID {
			target.conns = append(target.conns, c)
		}
	}
	return target, nil
}

func (h *Hub) cmdBan(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, den du bannen möchtest. zB.: /ban Max")
	}
	targetName := cmd.Args[0]

	target, err := h.resolveTarget(ctx, targetName)
	if err != nil {
		return fmt.Errorf("lookup ban target: %w", err)
	}
	if !target.found() {
		return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("Benutzer %s nicht gefunden.", targetName))
	}
	if target.admin() {
		return authError(ErrCodeTargetIsAdmin, fmt.Sprintf("Du kannst %s nicht bannen, da er ein Administrator ist.", target.display))
	}

	if target.account != nil {
		if _, err := h.accounts.SetBanned(ctx, target.account.Name, true); err != nil {
			return fmt.Errorf("ban account: %w", err)
		}
	}

	var ips []string
	for _, c := range target.conns {
		h.mod.BanConn(c.ID)
		h.unicast(c, notice("Du wurdest von einem Administrator gebannt."))
		ips = append(ips, c.IP)
	}
	if len(target.conns) == 0 && target.account != nil {
		ips = append(ips, target.account.LastIP)
	}
	for _, ip := range ips {
		h.mod.BanIP(ip, target.origin())
	}

	h.broadcast(notice("%s wurde von %s gebannt.", target.display, conn.Name))
	h.log.Warn().
		Str("conn_id", conn.ID).
		Str("admin", conn.Name).
		Str("user", target.display).
		Strs("ips", ips).
		Msg("user banned")
	return nil
}

func (h *Hub) cmdUnban(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, dessen Bann du aufheben möchtest. zB.: /unban Max")
	}
	targetName := cmd.Args[0]

	target, err := h.resolveTarget(ctx, targetName)
	if err != nil {
		return fmt.Errorf("lookup unban target: %w", err)
	}
	if !target.found() {
		return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("Benutzer %s nicht gefunden.", targetName))
	}

	lifted := false
	if target.account != nil && target.account.IsBanned {
		if _, err := h.accounts.SetBanned(ctx, target.account.Name, false); err != nil {
			return fmt.Errorf("unban account: %w", err)
		}
		lifted = true
	}
	for _, c := range target.conns {
		if h.mod.UnbanConn(c.ID) {
			lifted = true
		}
	}
	if h.opts.UnbanClearsIPs {
		for _, name := range []string{target.origin(), target.display} {
			if h.mod.LiftIPs(name) > 0 {
				lifted = true
			}
		}
	}

	if !lifted {
		return conflictError(ErrCodeNotBanned, fmt.Sprintf("Der Benutzer %s ist nicht gebannt.", target.display))
	}

	h.broadcast(notice("%s wurde von %s entbannt.", target.display, conn.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("admin", conn.Name).Str("user", target.display).Msg("user unbanned")
	return nil
}

func (h *Hub) cmdSetAdmin(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, den du zum Administrator machen möchtest.")
	}
	targetName := cmd.Args[0]

	acc, err := h.accounts.SetAdmin(ctx, h.accountName(targetName), true)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("%s existiert nicht als registrierter Benutzer.", targetName))
		}
		return err
	}

	for _, c := range h.registry.BoundTo(acc.Name) {
		c.Admin = true
		h.unicast(c, notice("Du bist jetzt Administrator."))
	}

	h.broadcast(notice("%s hat %s zum Administrator ernannt.", conn.Name, acc.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("admin", conn.Name).Str("user", acc.Name).Msg("administrator promoted")
	return nil
}

func (h *Hub) cmdRemoveAdmin(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, dessen Administratorrechte du entfernen möchtest. zB.: /removeAdmin Max")
	}
	targetName := cmd.Args[0]

	acc, err := h.accounts.SetAdmin(ctx, h.accountName(targetName), false)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrNotAdmin) {
			return conflictError(ErrCodeNotAdmin, fmt.Sprintf("Benutzer %s ist kein Administrator oder existiert nicht.", targetName))
		}
		return err
	}

	for _, c := range h.registry.BoundTo(acc.Name) {
		c.Admin = false
	}

	h.broadcast(notice("%s wurde von %s die Administratorrechte entzogen.", acc.Name, conn.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("admin", conn.Name).Str("user", acc.Name).Msg("administrator demoted")
	return nil
}

func (h *Hub) cmdTopic(_ context.Context, conn *Connection, cmd Command) error {
	topic := cmd.Tail(1)
	if utf8.RuneCountInString(topic) <= h.opts.MinTopicLength {
		h.log.Debug().Str("conn_id", conn.ID).Str("user", conn.Name).Str("topic", topic).Msg("topic too short")
		return validationError(ErrCodeTopicTooShort,
			fmt.Sprintf("Das Thema muss länger als %d Zeichen sein.", h.opts.MinTopicLength))
	}

	h.topic = topic
	h.broadcast(notice(`Das Thema wurde von %s auf "%s" geändert.`, conn.Name, topic))
	h.broadcast(controlEvent(ControlTopic + topic))
	h.log.Info().Str("conn_id", conn.ID).Str("user", conn.Name).Str("topic", topic).Msg("topic changed")
	return nil
}

func (h *Hub) cmdDeleteUser(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, den du löschen möchtest. zB.: /deleteUser Max")
	}
	targetName := cmd.Args[0]

	name, err := h.accounts.DeleteAccount(ctx, h.accountName(targetName))
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("Benutzer %s nicht gefunden.", targetName))
		}
		return err
	}

	h.unicast(conn, notice("Benutzer %s wurde erfolgreich gelöscht.", name))

	affected := h.registry.BoundTo(name)
	if live := h.registry.ByName(name); live != nil && live.Account == "" {
		affected = append(affected, live)
	}
	for _, c := range affected {
		c.bind("", false)
		h.unicast(c, notice("Benutzer %s wurde von einem Admin aus der Datenbank gelöscht. Du hast keinen registrierten Benutzer mehr.", name))
	}

	h.log.Info().Str("conn_id", conn.ID).Str("admin", conn.Name).Str("user", name).Msg("account deleted by administrator")
	return nil
}

// cmdDump reports the live state of the room to the caller and the log.
func (h *Hub) cmdDump(ctx context.Context, conn *Connection, _ Command) error {
	accounts, err := h.accounts.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}

	var b strings.Builder
	b.WriteString(noticef("Zustand: %d verbunden, Thema \"%s\"", h.registry.Len(), h.topic))
	b.WriteString("<br>")

	logConns := zerolog.Arr()
	for _, c := range h.registry.Sorted() {
		flags := connFlags(c, h.mod.ConnBanned(c.ID))
		fmt.Fprintf(&b, "%s %s [%s]<br>", html.EscapeString(c.Name), html.EscapeString(c.IP), flags)
		logConns.Str(fmt.Sprintf("%s|%s|%s|%s", c.ID, c.Name, c.IP, flags))
	}

	ips := h.mod.BannedIPs()
	b.WriteString(noticef("Gebannte IPs: %s", strings.Join(ips, ", ")))
	b.WriteString("<br>")

	logAccounts := zerolog.Arr()
	for _, acc := range accounts {
		flags := accountFlags(acc)
		fmt.Fprintf(&b, "%s [%s]<br>", html.EscapeString(acc.Name), flags)
		logAccounts.Str(acc.Name + "|" + flags)
	}

	h.unicast(conn, messageEvent(b.String()))
	h.log.Info().
		Str("conn_id", conn.ID).
		Str("admin", conn.Name).
		Str("topic", h.topic).
		Array("connections", logConns).
		Strs("banned_ips", ips).
		Array("accounts", logAccounts).
		Msg("state dump")
	return nil
}

func connFlags(c *Connection, banned bool) string {
	var flags []string
	if c.Account != "" {
		flags = append(flags, "account="+c.Account)
	}
	if c.Admin {
		flags = append(flags, "admin")
	}
	if banned {
		flags = append(flags, "banned")
	}
	return strings.Join(flags, ",")
}

func accountFlags(acc *store.Account) string {
	var flags []string
	if acc.IsAdmin {
		flags = append(flags, "admin")
	}
	if acc.IsBanned {
		flags = append(flags, "banned")
	}
	if acc.LastIP != "" {
		flags = append(flags, "ip="+acc.LastIP)
	}
	return strings.Join(flags, ",")
}
