package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
)

const (
	roleHost   = "host"
	rolePlayer = "player"

	// Close status sent to players joining a code with no live room.
	closeRoomNotFound = 4004

	defaultPlayerName = "Player"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn     *websocket.Conn
	send     chan any
	role     string
	playerID string
	key      string
	name     string
	language string
}

// frame is one inbound message, tagged with its sender. malformed marks a
// payload that failed to decode; the hub answers those with an ERROR to the
// offending connection only.
type frame struct {
	c         *client
	msg       clientMessage
	malformed bool
}

// hub is the actor owning one room: every mutation of the Room happens on
// the run goroutine, so commands are applied in arrival order and no
// intra-room race is possible. conns and cancelDestroy are bookkeeping for
// the registry and are guarded by the registry mutex, not by this loop.
type hub struct {
	code string
	reg  *registry
	room *Room

	clients    map[*client]bool
	hostClient *client

	register   chan *client
	unregister chan *client
	frames     chan frame
	tasks      chan func()
	done       chan struct{}
	stopOnce   sync.Once

	cancelTurnTimer cancelFunc

	conns         int
	cancelDestroy cancelFunc
}

func newHub(code string, reg *registry, room *Room) *hub {
	return &hub{
		code:       code,
		reg:        reg,
		room:       room,
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		frames:     make(chan frame),
		tasks:      make(chan func(), 8),
		done:       make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
			h.flush()

		case c := <-h.unregister:
			h.handleUnregister(c)
			h.flush()

		case f := <-h.frames:
			h.handleFrame(f)
			h.flush()

		case fn := <-h.tasks:
			fn()
			h.flush()

		case <-h.done:
			h.cancelTurn()
			h.closeAll()
			return
		}
	}
}

func (h *hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// post hands a closure to the run goroutine. Used by timer callbacks so
// that expiry, like everything else, mutates the room in arrival order.
func (h *hub) post(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.done:
	}
}

func (h *hub) handleRegister(c *client) {
	h.clients[c] = true

	switch c.role {
	case roleHost:
		if h.room.HostID == "" {
			h.room.HostID = uuid.NewString()
		}
		// Last host connection wins; an earlier host socket stays
		// attached but loses its host role.
		h.hostClient = c
		c.playerID = h.room.HostID

		c.send <- gameCreatedMessage{
			Type: msgGameCreated,
			Code: h.code,
		}

		log.Debug().Str("room", h.code).Msg("host connected")

	case rolePlayer:
		if h.reclaimSeat(c) != nil {
			log.Debug().Str("room", h.code).Str("player", c.playerID).Msg("player reconnected")
			break
		}

		player := h.room.addPlayer(c.name, c.language)
		c.playerID = player.ID

		log.Debug().Str("room", h.code).Str("player", player.ID).Str("name", player.Name).Msg("player joined")
	}
}

// reclaimSeat lets a returning connection take over its old seat. The caller
// must present both the seat id and that seat's secret key; ids are broadcast
// in every STATE_SYNC, so the id alone proves nothing. The key is checked
// before the token is redeemed so a failed attempt never burns the real
// owner's token.
func (h *hub) reclaimSeat(c *client) *Player {
	if c.playerID == "" || c.key == "" {
		return nil
	}

	player, ok := h.room.Players[c.playerID]
	if !ok || player.ReconnectKey != c.key {
		return nil
	}

	if !h.reg.reconnect.redeem(c.playerID, h.code) {
		return nil
	}

	return h.room.reattach(c.playerID)
}

func (h *hub) handleUnregister(c *client) {
	h.dropClient(c)
}

// dropClient detaches one connection and, when it was the seat's last, runs
// the seat disconnect bookkeeping. Reached both from readPump teardown and
// from sendTo evicting a stalled connection; the eviction path must not
// bypass the bookkeeping, or the seat would stay marked connected forever.
func (h *hub) dropClient(c *client) {
	if !h.clients[c] {
		return
	}

	delete(h.clients, c)
	close(c.send)

	if c == h.hostClient {
		h.hostClient = nil
		return
	}

	if c.role != rolePlayer || c.playerID == "" {
		return
	}

	// A second tab for the same seat keeps the player connected.
	for other := range h.clients {
		if other.playerID == c.playerID {
			return
		}
	}

	h.reg.reconnect.issue(c.playerID, h.code)
	h.room.setDisconnected(c.playerID)

	log.Debug().Str("room", h.code).Str("player", c.playerID).Msg("player disconnected")
}

// handleFrame dispatches one inbound message to the room, gated by role.
// A non-host sending a host command, or a player acting out of turn, is a
// benign race and is dropped without a reply.
func (h *hub) handleFrame(f frame) {
	c := f.c
	if !h.clients[c] {
		return
	}

	if f.malformed {
		h.sendTo(c, errorMessage{
			Type:    msgError,
			Message: "malformed message",
		})
		return
	}

	msg := f.msg

	switch msg.Type {
	case msgCreateGame, msgStartGame, msgNextPlayer, msgNextRound, msgKickPlayer:
		if c != h.hostClient {
			return
		}
	case msgJoinGame, msgSubmitAnswer, msgPass, msgTyping, msgSetLanguage:
		if c.role != rolePlayer {
			return
		}
	}

	switch msg.Type {
	case msgCreateGame:
		pack, err := decodePack(msg.Pack)
		if err != nil {
			h.sendTo(c, errorMessage{
				Type:    msgError,
				Message: "invalid pack: " + err.Error(),
			})
			return
		}
		h.room.createGame(pack, decodeSettings(msg.Settings, pack))

	case msgStartGame:
		h.room.startGame()

	case msgNextPlayer:
		h.room.advanceTurn()

	case msgNextRound:
		h.room.advanceRound()

	case msgKickPlayer:
		h.handleKick(msg.PlayerID)

	case msgJoinGame:
		if player, ok := h.room.Players[c.playerID]; ok {
			if msg.Name != "" {
				player.Name = msg.Name
			}
			if msg.Language != "" {
				player.Language = msg.Language
			}
		}

	case msgSubmitAnswer:
		h.room.submitAnswer(c.playerID, msg.Answer)

	case msgPass:
		h.room.submitAnswer(c.playerID, "")

	case msgTyping:
		if msg.IsTyping != nil {
			h.room.setTyping(c.playerID, *msg.IsTyping)
		}

	case msgSetLanguage:
		h.room.setLanguage(c.playerID, msg.Language)
	}
}

func (h *hub) handleKick(playerID string) {
	if playerID == "" {
		return
	}

	h.room.removePlayer(playerID)

	for c := range h.clients {
		if c.playerID != playerID {
			continue
		}
		h.sendTo(c, errorMessage{
			Type:    msgError,
			Message: "removed by the host",
		})
		if h.clients[c] {
			delete(h.clients, c)
			close(c.send)
		}
	}

	// Dropped last: a full-buffer eviction above may have issued a token
	// for the already-removed seat.
	h.reg.reconnect.drop(playerID)
}

// flush delivers everything the last command produced: the room's queued
// events, turn timer side effects, and a fresh full-state snapshot to every
// connection.
func (h *hub) flush() {
	// Evicting a stalled connection mid-broadcast can queue fresh room
	// events, so keep draining until the queue settles.
	for {
		events := h.room.drainEvents()
		if len(events) == 0 {
			break
		}

		for _, event := range events {
			switch msg := event.(type) {
			case turnStartMessage:
				h.cancelTurn()
				if msg.TimerDuration != nil {
					h.armTurnTimer(msg.PlayerID, *msg.TimerDuration)
				}
			case scoreRevealMessage:
				h.cancelTurn()
			}

			h.broadcast(event)
		}
	}

	snap := h.room.snapshot()
	for c := range h.clients {
		msg := stateSyncMessage{
			Type:   msgStateSync,
			State:  snap,
			YourID: c.playerID,
		}
		// The seat's reconnect key travels only to its own connection.
		if player, ok := h.room.Players[c.playerID]; ok {
			msg.YourKey = player.ReconnectKey
		}
		h.sendTo(c, msg)
	}
}

// armTurnTimer starts the fallback auto-pass countdown, padded with a short
// grace period for network jitter. The timer is best effort: if a human
// submission lands first, the expiry becomes a no-op inside the room.
func (h *hub) armTurnTimer(playerID string, seconds int) {
	d := time.Duration(seconds)*time.Second + h.reg.cfg.turnGrace

	h.cancelTurnTimer = h.reg.schedule(d, func() {
		h.post(func() {
			h.room.submitAnswer(playerID, "")
		})
	})
}

func (h *hub) cancelTurn() {
	if h.cancelTurnTimer != nil {
		h.cancelTurnTimer()
		h.cancelTurnTimer = nil
	}
}

// sendTo queues a message for one connection, dropping the connection if
// its buffer is full. A stuck socket never blocks the room.
func (h *hub) sendTo(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		h.dropClient(c)
	}
}

func (h *hub) broadcast(msg any) {
	for c := range h.clients {
		h.sendTo(c, msg)
	}
}

func (h *hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(h.clients, c)
	}
}

// serveGameSocket upgrades a connection and attaches it to its room's hub.
// Hosts create rooms on demand; players are rejected with a distinct close
// status when the code has no live room.
func serveGameSocket(cfg *Config, reg *registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := strings.ToUpper(ps.ByName("code"))
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		query := r.URL.Query()

		role := query.Get("role")
		if role != roleHost {
			role = rolePlayer
		}

		name := query.Get("name")
		if name == "" {
			name = defaultPlayerName
		}

		var h *hub
		if role == roleHost {
			h = reg.createOrGetRoom(code)
		} else {
			var ok bool
			h, ok = reg.lookupRoom(code)
			if !ok {
				rejectRoomNotFound(w, r)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("remote", realIP(r)).Msg("websocket upgrade failed")
			return
		}

		c := &client{
			conn:     conn,
			send:     make(chan any, 8),
			role:     role,
			playerID: query.Get("reconnectId"),
			key:      query.Get("reconnectKey"),
			name:     name,
			language: query.Get("language"),
		}

		reg.attach(h)
		defer reg.release(h)

		select {
		case h.register <- c:
		case <-h.done:
			_ = conn.Close()
			return
		}

		go c.writePump()
		c.readPump(h)
	}
}

// rejectRoomNotFound completes the upgrade just long enough to tell the
// client why it is being turned away, then closes with a distinct status.
func rejectRoomNotFound(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	_ = conn.WriteJSON(errorMessage{
		Type:    msgError,
		Message: errRoomNotFound.Error(),
	})
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(closeRoomNotFound, errRoomNotFound.Error()),
		time.Now().Add(time.Second),
	)
	_ = conn.Close()
}

func (c *client) readPump(h *hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg clientMessage
		err := c.conn.ReadJSON(&msg)

		malformed := false
		if err != nil {
			// A decode failure leaves the connection healthy; only
			// transport-level errors end the read loop.
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				return
			}
			malformed = true
		}

		f := frame{c: c, msg: msg, malformed: malformed}

		select {
		case h.frames <- f:
		case <-h.done:
			return
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
