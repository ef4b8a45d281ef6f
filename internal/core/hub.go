package core

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/espachat/internal/session"
	"github.com/vovakirdan/espachat/internal/store"
)

// AccountService is the subset of account operations the hub relies on.
type AccountService interface {
	Account(ctx context.Context, name string) (*store.Account, error)
	Accounts(ctx context.Context) ([]*store.Account, error)
	IsRegistered(ctx context.Context, name string) (bool, error)
	IsAdmin(ctx context.Context, name string) (bool, error)
	CreateUser(ctx context.Context, name, password, passwordRepeat, ip string) (*store.Account, error)
	Login(ctx context.Context, name, password, ip string) (*store.Account, error)
	ChangePassword(ctx context.Context, name, oldPassword, newPassword, newPasswordRepeat string) error
	LastLogin(ctx context.Context, name string) (*time.Time, error)
	DeleteAccount(ctx context.Context, name string) (string, error)
	SetAdmin(ctx context.Context, name string, admin bool) (*store.Account, error)
	SetBanned(ctx context.Context, name string, banned bool) (*store.Account, error)
}

// TokenCodec issues and verifies continuity tokens naming a connection id.
type TokenCodec interface {
	Issue(connID string) (string, error)
	Parse(token string) (string, error)
}

// Options configures the room.
type Options struct {
	Title          string
	Topic          string
	GuestPrefix    string
	Palette        []string
	MinTopicLength int
	UnbanClearsIPs bool
	// StoreTimeout bounds account and continuity calls made for one event.
	StoreTimeout time.Duration
	// TokenRefresh re-issues a connection's continuity token once it is older
	// than this. Zero disables refreshing.
	TokenRefresh time.Duration
}

const (
	defaultGuestPrefix    = "Gast"
	defaultMinTopicLength = 15
	defaultStoreTimeout   = 2 * time.Second
	inboxSize             = 256
	guestNameAttempts     = 50
)

// RoomInfo is a snapshot of the room for HTTP readers.
type RoomInfo struct {
	Title  string
	Topic  string
	Online int
}

// ErrHubStopped is returned by queries issued after Run has returned.
var ErrHubStopped = errors.New("hub stopped")

// Hub owns every piece of mutable chat state. Connects, texts, disconnects
// and queries are processed one at a time by Run.
type Hub struct {
	opts     Options
	accounts AccountService
	sessions session.Store
	tokens   TokenCodec
	log      *zerolog.Logger

	inbox chan func(context.Context)
	done  chan struct{}

	registry *Registry
	mod      *Moderation
	topic    string

	userCommands  map[string]commandFunc
	adminCommands map[string]commandFunc

	rand func(n int) int
	now  func() time.Time
}

// NewHub creates a hub. A nil sessions store falls back to an in-memory
// store without expiry.
func NewHub(opts Options, accounts AccountService, sessions session.Store, tokens TokenCodec, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.GuestPrefix == "" {
		opts.GuestPrefix = defaultGuestPrefix
	}
	if len(opts.Palette) == 0 {
		opts.Palette = []string{"#007bff"}
	}
	if opts.MinTopicLength <= 0 {
		opts.MinTopicLength = defaultMinTopicLength
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = defaultStoreTimeout
	}
	if sessions == nil {
		sessions = session.NewMemoryStore(0, logger)
	}

	h := &Hub{
		opts:     opts,
		accounts: accounts,
		sessions: sessions,
		tokens:   tokens,
		log:      logger,
		inbox:    make(chan func(context.Context), inboxSize),
		done:     make(chan struct{}),
		registry: NewRegistry(),
		mod:      NewModeration(),
		topic:    opts.Topic,
		rand:     rand.IntN,
		now:      time.Now,
	}
	h.userCommands = h.userTable()
	h.adminCommands = h.adminTable()
	return h
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-h.inbox:
			h.exec(ctx, fn)
		}
	}
}

func (h *Hub) exec(ctx context.Context, fn func(context.Context)) {
	opCtx, cancel := context.WithTimeout(ctx, h.opts.StoreTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("recovered panic in hub event")
		}
	}()
	fn(opCtx)
}

// enqueue hands fn to the loop. It reports false once the hub has stopped.
func (h *Hub) enqueue(fn func(context.Context)) bool {
	select {
	case h.inbox <- fn:
		return true
	case <-h.done:
		return false
	}
}

// Connect registers client, restoring the identity named by token when possible.
func (h *Hub) Connect(client *Client, token string) {
	h.enqueue(func(ctx context.Context) {
		h.handleConnect(ctx, client, token)
	})
}

// Submit processes one line of text sent by client.
func (h *Hub) Submit(client *Client, text string) {
	h.enqueue(func(ctx context.Context) {
		h.handleText(ctx, client.ID, text)
	})
}

// Disconnect removes client and parks its identity for a later reconnect.
func (h *Hub) Disconnect(client *Client) {
	h.enqueue(func(ctx context.Context) {
		h.handleDisconnect(ctx, client.ID)
	})
}

// RoomInfo returns the current title, topic and online count.
func (h *Hub) RoomInfo(ctx context.Context) (RoomInfo, error) {
	reply := make(chan RoomInfo, 1)
	if !h.enqueue(func(context.Context) {
		reply <- RoomInfo{Title: h.opts.Title, Topic: h.topic, Online: h.registry.Len()}
	}) {
		return RoomInfo{}, ErrHubStopped
	}

	select {
	case info := <-reply:
		return info, nil
	case <-h.done:
		return RoomInfo{}, ErrHubStopped
	case <-ctx.Done():
		return RoomInfo{}, ctx.Err()
	}
}

func (h *Hub) handleConnect(ctx context.Context, client *Client, token string) {
	if h.registry.Get(client.ID) != nil {
		h.log.Warn().Str("conn_id", client.ID).Msg("duplicate connect ignored")
		return
	}

	conn := &Connection{ID: client.ID, IP: client.IP, client: client}
	restored := h.restoreIdentity(ctx, conn, token)
	if !restored {
		conn.Name = h.generateGuestName(ctx)
		conn.Color = h.pickColor()
	}
	h.registry.Add(conn)

	h.broadcast(notice("%s hat den Chat betreten.", conn.Name))
	if restored {
		h.unicast(conn, notice("Willkommen zurück, %s!", conn.Name))
	} else {
		h.unicast(conn, messageEvent(welcomeHTML(conn.Name)))
	}
	h.unicast(conn, controlEvent(ControlTopic+h.topic))
	h.issueToken(conn)

	h.log.Info().
		Str("conn_id", conn.ID).
		Str("user", conn.Name).
		Str("ip", conn.IP).
		Bool("restored", restored).
		Msg("client connected")
}

func (h *Hub) handleDisconnect(ctx context.Context, id string) {
	conn, ok := h.registry.Remove(id)
	if !ok {
		return
	}
	h.mod.UnbanConn(id)

	snap := session.Snapshot{Token: conn.ID, Name: conn.Name, Color: conn.Color, SavedAt: h.now()}
	if err := h.sessions.Save(ctx, snap); err != nil {
		h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to park session")
	}

	h.broadcast(notice("%s hat den Chat verlassen.", conn.Name))
	h.log.Info().Str("conn_id", conn.ID).Str("user", conn.Name).Msg("client disconnected")
}

func (h *Hub) handleText(ctx context.Context, id, text string) {
	conn := h.registry.Get(id)
	if conn == nil {
		return
	}

	if !h.mod.CanSend(conn) {
		h.unicast(conn, errorEvent(authError(ErrCodeBanned, "Du wurdest gebannt und kannst keine Nachrichten senden.")))
		h.log.Debug().Str("conn_id", conn.ID).Str("user", conn.Name).Msg("rejected input from banned client")
		return
	}

	if cmd, ok := ParseCommand(text); ok {
		h.dispatch(ctx, conn, cmd)
	} else {
		if isBlank(text) {
			return
		}
		h.broadcast(messageEvent(chatLine(conn.Name, conn.Color, h.now(), text)))
		h.log.Info().Str("conn_id", conn.ID).Str("user", conn.Name).Str("text", text).Msg("chat message")
	}

	h.refreshToken(conn)
}

// issueToken sends conn a continuity token naming its connection id.
func (h *Hub) issueToken(conn *Connection) {
	if h.tokens == nil {
		return
	}
	token, err := h.tokens.Issue(conn.ID)
	if err != nil {
		h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("failed to issue continuity token")
		return
	}
	conn.tokenIssued = h.now()
	h.unicast(conn, controlEvent(ControlContinuityToken+token))
}

func (h *Hub) refreshToken(conn *Connection) {
	if h.opts.TokenRefresh <= 0 || h.registry.Get(conn.ID) != conn {
		return
	}
	if h.now().Sub(conn.tokenIssued) >= h.opts.TokenRefresh {
		h.issueToken(conn)
	}
}
