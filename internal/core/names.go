package core

import (
	"context"
	"strconv"
	"strings"

	"github.com/vovakirdan/espachat/internal/utils"
)

const (
	minNameLength = 3
	maxNameLength = 9
)

func welcomeHTML(name string) string {
	return noticef("Willkommen, %s!", name) +
		` <span class="secretMsg">Tippe: '/name &lt;dein Name&gt;' um deinen Namen zu ändern oder /help für den Hilfe-Dialog.</span>`
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// restoreIdentity copies name and colour from the snapshot named by token.
// A name that a live connection took in the meantime is not restored.
func (h *Hub) restoreIdentity(ctx context.Context, conn *Connection, token string) bool {
	if token == "" || h.tokens == nil {
		return false
	}
	formerID, err := h.tokens.Parse(token)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", conn.ID).Msg("ignoring continuity token")
		return false
	}

	snap, ok, err := h.sessions.Restore(ctx, formerID)
	if err != nil {
		h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("session restore failed")
		return false
	}
	if !ok {
		return false
	}
	if other := h.registry.ByName(snap.Name); other != nil {
		h.log.Info().
			Str("conn_id", conn.ID).
			Str("user", snap.Name).
			Msg("parked name taken, assigning guest name")
		return false
	}

	conn.Name = snap.Name
	conn.Color = snap.Color
	if conn.Color == "" {
		conn.Color = h.pickColor()
	}
	return true
}

// generateGuestName picks prefix+0..999 not used by a live identity, an
// account or a parked session.
func (h *Hub) generateGuestName(ctx context.Context) string {
	for range guestNameAttempts {
		name := h.opts.GuestPrefix + strconv.Itoa(h.rand(1000))
		if h.guestNameFree(ctx, name) {
			return name
		}
	}

	name := h.opts.GuestPrefix + utils.ShortID(6)
	h.log.Warn().Str("user", name).Msg("guest numbers exhausted, using random suffix")
	return name
}

func (h *Hub) guestNameFree(ctx context.Context, name string) bool {
	taken, err := h.nameTaken(ctx, name)
	if err != nil {
		h.log.Warn().Err(err).Str("user", name).Msg("name lookup failed")
		return false
	}
	if taken {
		return false
	}
	_, parked, err := h.sessions.TokenForName(ctx, name)
	if err != nil {
		h.log.Warn().Err(err).Str("user", name).Msg("session lookup failed")
		return false
	}
	return !parked
}

// nameTaken reports whether a live identity or an account uses name.
func (h *Hub) nameTaken(ctx context.Context, name string) (bool, error) {
	if h.registry.ByName(name) != nil {
		return true, nil
	}
	return h.accounts.IsRegistered(ctx, name)
}

func (h *Hub) pickColor() string {
	return h.opts.Palette[h.rand(len(h.opts.Palette))]
}

// claimName drops a parked snapshot so its owner cannot take the name back.
func (h *Hub) claimName(ctx context.Context, name string) {
	if err := h.sessions.Forget(ctx, name); err != nil {
		h.log.Warn().Err(err).Str("user", name).Msg("failed to drop parked session")
	}
}
