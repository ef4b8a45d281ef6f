package core

import (
	"context"

	"github.com/rs/zerolog"
)

type commandFunc func(ctx context.Context, conn *Connection, cmd Command) error

func (h *Hub) userTable() map[string]commandFunc {
	return map[string]commandFunc{
		"help":           h.cmdHelp,
		"name":           h.cmdName,
		"msg":            h.cmdMsg,
		"userlist":       h.cmdUserlist,
		"createUser":     h.cmdCreateUser,
		"login":          h.cmdLogin,
		"lastLogin":      h.cmdLastLogin,
		"deleteMe":       h.cmdDeleteMe,
		"changePassword": h.cmdChangePassword,
	}
}

func (h *Hub) adminTable() map[string]commandFunc {
	return map[string]commandFunc{
		"help":        h.cmdAdminHelp,
		"ban":         h.cmdBan,
		"unban":       h.cmdUnban,
		"setAdmin":    h.cmdSetAdmin,
		"removeAdmin": h.cmdRemoveAdmin,
		"topic":       h.cmdTopic,
		"deleteUser":  h.cmdDeleteUser,
		"dump":        h.cmdDump,
	}
}

// dispatch resolves cmd against the user table, then, for admin sessions
// that pass a fresh authorization check, against the admin table.
func (h *Hub) dispatch(ctx context.Context, conn *Connection, cmd Command) {
	if fn, ok := h.userCommands[cmd.Name]; ok {
		h.runCommand(ctx, conn, cmd, fn)
		return
	}

	if conn.Admin {
		if !h.authorizeAdmin(ctx, conn) {
			return
		}
		if fn, ok := h.adminCommands[cmd.Name]; ok {
			h.runCommand(ctx, conn, cmd, fn)
			return
		}
	}

	h.unicast(conn, errorEvent(validationError(ErrCodeUnknownCommand, "Unbekannter Befehl. Tippe /help für Hilfe.")))
}

// runAdmin runs an admin command reached from outside dispatch.
func (h *Hub) runAdmin(ctx context.Context, conn *Connection, cmd Command, name string) {
	if !h.authorizeAdmin(ctx, conn) {
		return
	}
	h.runCommand(ctx, conn, cmd, h.adminCommands[name])
}

func (h *Hub) runCommand(ctx context.Context, conn *Connection, cmd Command, fn commandFunc) {
	err := fn(ctx, conn, cmd)
	if err == nil {
		return
	}

	ce := fromAccountError(err)
	var logEv *zerolog.Event
	switch ce.Kind {
	case KindInternal:
		logEv = h.log.Error()
	case KindAuth:
		logEv = h.log.Warn()
	default:
		logEv = h.log.Debug()
	}
	logEv.Err(err).
		Str("conn_id", conn.ID).
		Str("user", conn.Name).
		Str("command", cmd.Name).
		Str("code", ce.Code).
		Msg("command failed")

	h.unicast(conn, errorEvent(ce))
}

// authorizeAdmin requires the session flag and a fresh administrator flag on
// the bound account. A failed check clears the stale session flag.
func (h *Hub) authorizeAdmin(ctx context.Context, conn *Connection) bool {
	if conn.Admin && conn.Account != "" {
		ok, err := h.accounts.IsAdmin(ctx, conn.Account)
		if err != nil {
			h.log.Error().Err(err).Str("conn_id", conn.ID).Str("user", conn.Name).Msg("admin check failed")
			h.unicast(conn, errorEvent(internalError()))
			return false
		}
		if ok {
			return true
		}
	}

	conn.Admin = false
	h.unicast(conn, errorEvent(authError(ErrCodeUnauthorized,
		"Du bist kein Administrator. Dieser Befehl ist nur für Administratoren verfügbar.")))
	h.broadcast(notice("%s versucht, einen Admin-Befehl auszuführen, aber ist kein Administrator.", conn.Name))
	h.log.Warn().
		Str("conn_id", conn.ID).
		Str("user", conn.Name).
		Str("ip", conn.IP).
		Msg("admin command denied")
	return false
}
