package main

import (
	"sync"
	"time"
)

// reconnectManager lets a dropped player reclaim their seat. Tokens are
// keyed by player id, which each client already knows from STATE_SYNC, and
// are single use: redeemed or expired, the player id behaves like any
// fresh join.
type reconnectManager struct {
	mu     sync.Mutex
	tokens map[string]reconnectToken
	ttl    time.Duration
	now    func() time.Time
}

type reconnectToken struct {
	roomCode string
	expires  time.Time
}

func newReconnectManager(ttl time.Duration) *reconnectManager {
	return &reconnectManager{
		tokens: make(map[string]reconnectToken),
		ttl:    ttl,
		now:    time.Now,
	}
}

// issue registers playerID for reconnection to roomCode. Called on
// disconnect; re-issuing refreshes the expiry.
func (m *reconnectManager) issue(playerID, roomCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[playerID] = reconnectToken{
		roomCode: roomCode,
		expires:  m.now().Add(m.ttl),
	}
}

// redeem consumes the token for playerID if it matches roomCode and has not
// expired. A false return means the caller should be treated as a brand-new
// player.
func (m *reconnectManager) redeem(playerID, roomCode string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.tokens[playerID]
	if !ok {
		return false
	}

	if !m.now().Before(token.expires) {
		delete(m.tokens, playerID)
		return false
	}

	// A mismatched room leaves the token intact for the room it was
	// issued against.
	if token.roomCode != roomCode {
		return false
	}

	delete(m.tokens, playerID)

	return true
}

// drop discards any pending token for playerID (used when the seat itself
// is removed).
func (m *reconnectManager) drop(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, playerID)
}
