package main

import (
	"crypto/rand"
	"errors"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Room codes are read aloud and typed on phones, so the alphabet drops
// characters that are easily confused: no I, O, 0, or 1.
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 4
)

var errRoomNotFound = errors.New("no room with that code")

// registry owns the set of live rooms. It is the only writer to the room
// map; creation and destruction are atomic with respect to lookups. A room
// is destroyed a grace period after its last connection closes, so a brief
// reload or tab switch does not lose the game.
type registry struct {
	mu        sync.Mutex
	rooms     map[string]*hub
	cfg       *Config
	reconnect *reconnectManager
	schedule  timerFactory
}

func newRegistry(cfg *Config, reconnect *reconnectManager, schedule timerFactory) *registry {
	return &registry{
		rooms:     make(map[string]*hub),
		cfg:       cfg,
		reconnect: reconnect,
		schedule:  schedule,
	}
}

// newRoomCode generates a crypto-random code, re-rolling on the rare
// collision with a live room.
func (reg *registry) newRoomCode() string {
	for {
		buf := make([]byte, roomCodeLength)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}

		out := make([]byte, roomCodeLength)
		for i := range out {
			out[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
		}
		code := string(out)

		reg.mu.Lock()
		_, exists := reg.rooms[code]
		reg.mu.Unlock()

		if !exists {
			return code
		}
	}
}

// createOrGetRoom returns the room for code, allocating a fresh one in the
// lobby phase if none exists. Idempotent: racing callers always land on the
// same hub.
func (reg *registry) createOrGetRoom(code string) *hub {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if h, ok := reg.rooms[code]; ok {
		return h
	}

	rng := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))
	h := newHub(code, reg, newRoom(code, rng))
	reg.rooms[code] = h
	go h.run()

	log.Debug().Str("room", code).Msg("room created")

	return h
}

// lookupRoom never creates; players joining a dead code get an explicit
// rejection instead of an empty room.
func (reg *registry) lookupRoom(code string) (*hub, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	h, ok := reg.rooms[code]
	return h, ok
}

// attach records one more live connection on the room, cancelling any
// pending destruction.
func (reg *registry) attach(h *hub) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	h.conns++
	if h.cancelDestroy != nil {
		h.cancelDestroy()
		h.cancelDestroy = nil
	}
}

// release records a closed connection and, when the room empties, schedules
// destruction after the configured grace period. The connection count is
// re-checked at fire time: anyone present by then keeps the room alive.
func (reg *registry) release(h *hub) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if h.conns > 0 {
		h.conns--
	}
	if h.conns > 0 {
		return
	}

	code := h.code
	h.cancelDestroy = reg.schedule(reg.cfg.roomGrace, func() {
		reg.destroyIfEmpty(code)
	})
}

func (reg *registry) destroyIfEmpty(code string) {
	reg.mu.Lock()
	h, ok := reg.rooms[code]
	if !ok || h.conns > 0 {
		reg.mu.Unlock()
		return
	}
	delete(reg.rooms, code)
	reg.mu.Unlock()

	h.stop()

	log.Debug().Str("room", code).Msg("room destroyed")
}
