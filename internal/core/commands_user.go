package core

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/vovakirdan/espachat/internal/auth"
	"github.com/vovakirdan/espachat/internal/utils"
)

const userHelpHTML = `<span class="user-action">Hier sind die verfügbaren Befehle:</span><br>
<span class="command">/help</span> - Zeigt diese Hilfe an.<br>
<span class="command">/name &lt;dein Name&gt;</span> - Ändert deinen Benutzernamen.<br>
<span class="command">/msg &lt;Benutzername&gt; &lt;Nachricht&gt;</span> - Sendet eine private Nachricht an einen Benutzer.<br>
<span class="command">/userlist</span> - Zeigt eine Liste aller aktiven Benutzer an.<br>
<span class="command">/clean</span> - Leert den Chatverlauf.<br>
<span class="command">/createUser &lt;passwort&gt; &lt;passwort wiederholen&gt;</span> - Erstellt einen neuen Benutzer mit dem angegebenen Passwort und aktuellen Benutzernamen.<br>
<span class="command">/login &lt;Benutzername&gt; &lt;Passwort&gt;</span> - Loggt einen Benutzer ein, wenn er bereits existiert.<br>
<span class="command">/lastLogin &lt;Benutzername&gt;</span> - Zeigt Datum und Zeit des letzten Logins eines Benutzers an.<br>
<span class="command">/deleteMe</span> - Löscht deinen registrierten Benutzer.<br>
<span class="command">/changePassword &lt;altes Passwort&gt; &lt;neues Passwort&gt; &lt;neues Passwort wiederholen&gt;</span> - Ändert dein Passwort.<br>`

func (h *Hub) cmdHelp(ctx context.Context, conn *Connection, cmd Command) error {
	h.unicast(conn, messageEvent(userHelpHTML))
	if conn.Admin {
		h.runAdmin(ctx, conn, cmd, "help")
	}
	h.log.Debug().Str("conn_id", conn.ID).Str("user", conn.Name).Msg("help requested")
	return nil
}

func (h *Hub) cmdName(ctx context.Context, conn *Connection, cmd Command) error {
	newName := utils.StripNonAlnum(cmd.Tail(1))

	switch n := utf8.RuneCountInString(newName); {
	case n < minNameLength:
		return validationError(ErrCodeNameInvalid, "Benutzername muss mindestens 3 Zeichen und maximal 9 Zeichen haben.")
	case n > maxNameLength:
		return validationError(ErrCodeNameInvalid, "Benutzername darf maximal 9 Zeichen haben.")
	}

	taken, err := h.nameTaken(ctx, newName)
	if err != nil {
		return fmt.Errorf("check name: %w", err)
	}
	if taken {
		return conflictError(ErrCodeNameTaken,
			"Benutzername ist bereits vergeben. Bitte wähle einen anderen oder logge dich mit /login <name> <passwort> ein.")
	}

	oldName := conn.Name
	conn.Name = newName
	h.claimName(ctx, newName)

	h.broadcast(notice("%s hat seinen Benutzernamen auf %s geändert.", oldName, newName))
	h.log.Info().Str("conn_id", conn.ID).Str("old", oldName).Str("user", newName).Msg("name changed")
	return nil
}

func (h *Hub) cmdMsg(_ context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 2 {
		return usageError("Bitte gib einen Benutzernamen und eine Nachricht an. zB.: /msg Max Hallo")
	}
	targetName := cmd.Args[0]
	text := cmd.Tail(2)

	target := h.registry.ByName(targetName)
	if target == nil {
		return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("Benutzer %s nicht gefunden.", targetName))
	}

	line := privateLine(conn.Name, conn.Color, h.now(), text)
	h.unicast(target, messageEvent(line))
	h.unicast(conn, messageEvent(noticef("Nachricht an %s gesendet: ", target.Name)+"<br>"+line))

	h.log.Info().
		Str("conn_id", conn.ID).
		Str("user", conn.Name).
		Str("target", target.Name).
		Str("text", text).
		Msg("private message")
	return nil
}

func (h *Hub) cmdUserlist(_ context.Context, conn *Connection, _ Command) error {
	var b strings.Builder
	b.WriteString(noticeHTML("Aktive Benutzer:"))
	b.WriteString("<br>")

	conns := h.registry.Sorted()
	for _, admins := range []bool{true, false} {
		for _, c := range conns {
			if c.Admin != admins {
				continue
			}
			prefix := ""
			if c.Admin {
				prefix = "@"
			}
			fmt.Fprintf(&b, `<span class="user-name" style="color:%s">%s%s</span><br>`,
				c.Color, prefix, html.EscapeString(c.Name))
		}
	}

	h.unicast(conn, messageEvent(b.String()))
	h.log.Debug().Str("conn_id", conn.ID).Str("user", conn.Name).Msg("userlist requested")
	return nil
}

func (h *Hub) cmdCreateUser(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 2 {
		return usageError("Bitte gib ein Passwort an. zB.: /createUser <passwort> <passwort wiederholen>")
	}

	acc, err := h.accounts.CreateUser(ctx, conn.Name, cmd.Args[0], cmd.Args[1], conn.IP)
	if err != nil {
		if errors.Is(err, auth.ErrNameRegistered) {
			return conflictError(ErrCodeNameRegistered,
				fmt.Sprintf("Benutzername %s ist bereits vergeben. Bitte wähle einen anderen.", conn.Name))
		}
		return err
	}

	conn.bind(acc.Name, acc.IsAdmin)
	h.claimName(ctx, acc.Name)

	h.unicast(conn, notice("Benutzer %s wurde erfolgreich erstellt.", acc.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("user", acc.Name).Str("ip", conn.IP).Msg("account created")
	return nil
}

func (h *Hub) cmdLogin(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 2 {
		return usageError("Bitte gib einen Benutzernamen und ein Passwort an. zB.: /login <Benutzername> <Passwort>")
	}
	username, password := cmd.Args[0], cmd.Args[1]

	if utils.SameName(conn.Name, username) && utils.SameName(conn.Account, username) {
		return conflictError(ErrCodeAlreadyLoggedIn, fmt.Sprintf("Du bist bereits eingeloggt als %s.", conn.Name))
	}
	if other := h.registry.ByName(username); other != nil && other != conn {
		return conflictError(ErrCodeNameInUse, fmt.Sprintf("Benutzer %s ist bereits im Chat angemeldet.", other.Name))
	}

	acc, err := h.accounts.Login(ctx, username, password, conn.IP)
	if err != nil {
		if errors.Is(err, auth.ErrBanned) {
			name := username
			if acc != nil {
				name = acc.Name
			}
			h.mod.BanIP(conn.IP, name)
			h.log.Warn().
				Str("conn_id", conn.ID).
				Str("user", name).
				Str("ip", conn.IP).
				Msg("login attempt by banned account")
		}
		return err
	}

	conn.Name = acc.Name
	conn.bind(acc.Name, acc.IsAdmin)
	h.claimName(ctx, acc.Name)

	h.unicast(conn, notice("Willkommen zurück, %s!", acc.Name))
	h.broadcast(notice("%s hat sich eingeloggt.", acc.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("user", acc.Name).Str("ip", conn.IP).Msg("logged in")

	if acc.IsAdmin {
		h.unicast(conn, notice("Du bist als Administrator eingeloggt."))
		h.broadcast(notice("%s hat sich als Administrator eingeloggt.", acc.Name))
		h.log.Info().Str("conn_id", conn.ID).Str("user", acc.Name).Msg("administrator logged in")
	}
	return nil
}

func (h *Hub) cmdLastLogin(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 1 {
		return usageError("Bitte gib einen Benutzernamen an, dessen letztes Login du sehen möchtest. zB.: /lastLogin Max")
	}
	target := cmd.Args[0]

	last, err := h.accounts.LastLogin(ctx, target)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return notFoundError(ErrCodeUserNotFound, fmt.Sprintf("Benutzer %s nicht gefunden.", target))
		}
		return err
	}

	when := "Nie"
	if last != nil {
		when = last.Local().Format(TimeLayout)
	}
	h.unicast(conn, notice("Letztes Login von %s: %s", target, when))
	return nil
}

func (h *Hub) cmdDeleteMe(ctx context.Context, conn *Connection, _ Command) error {
	if conn.Account == "" {
		return notFoundError(ErrCodeNotRegistered, "Du hast keinen registrierten Benutzer.")
	}

	name, err := h.accounts.DeleteAccount(ctx, conn.Account)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			conn.bind("", false)
			return notFoundError(ErrCodeNotRegistered, "Du hast keinen registrierten Benutzer.")
		}
		return err
	}

	for _, c := range h.registry.BoundTo(name) {
		c.bind("", false)
	}
	h.unicast(conn, notice("Benutzer %s wurde erfolgreich gelöscht.", name))
	h.log.Info().Str("conn_id", conn.ID).Str("user", name).Msg("account deleted by owner")
	return nil
}

func (h *Hub) cmdChangePassword(ctx context.Context, conn *Connection, cmd Command) error {
	if len(cmd.Args) < 3 {
		return usageError("Bitte gib dein altes Passwort, neues Passwort und neues Passwort wiederholen an. " +
			"zB.: /changePassword <altes Passwort> <neues Passwort> <neues Passwort wiederholen>")
	}
	if conn.Account == "" {
		return notFoundError(ErrCodeNotRegistered, "Du hast keinen registrierten Benutzer.")
	}

	err := h.accounts.ChangePassword(ctx, conn.Account, cmd.Args[0], cmd.Args[1], cmd.Args[2])
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrPasswordMismatch):
		return validationError(ErrCodePasswordMismatch, "Die neuen Passwörter stimmen nicht überein. Bitte versuche es erneut.")
	case errors.Is(err, auth.ErrPasswordTooShort):
		return validationError(ErrCodePasswordTooShort, "Das neue Passwort muss mindestens 8 Zeichen lang sein.")
	case errors.Is(err, auth.ErrPasswordTooLong):
		return validationError(ErrCodePasswordTooLong, "Das neue Passwort darf maximal 20 Zeichen lang sein.")
	case errors.Is(err, auth.ErrUserNotFound):
		conn.bind("", false)
		return notFoundError(ErrCodeNotRegistered, "Du hast keinen registrierten Benutzer.")
	default:
		return err
	}

	h.unicast(conn, notice("Dein Passwort wurde geändert."))
	h.log.Info().Str("conn_id", conn.ID).Str("user", conn.Account).Msg("password changed")
	return nil
}

