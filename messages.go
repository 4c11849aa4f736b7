package main

import "encoding/json"

// Inbound message types.
const (
	msgCreateGame   = "CREATE_GAME"
	msgStartGame    = "START_GAME"
	msgNextPlayer   = "NEXT_PLAYER"
	msgNextRound    = "NEXT_ROUND"
	msgKickPlayer   = "KICK_PLAYER"
	msgJoinGame     = "JOIN_GAME"
	msgSubmitAnswer = "SUBMIT_ANSWER"
	msgPass         = "PASS"
	msgTyping       = "TYPING"
	msgSetLanguage  = "SET_LANGUAGE"
)

// Outbound message types.
const (
	msgGameCreated  = "GAME_CREATED"
	msgStateSync    = "STATE_SYNC"
	msgPlayerJoined = "PLAYER_JOINED"
	msgPlayerLeft   = "PLAYER_LEFT"
	msgPlayerTyping = "PLAYER_TYPING"
	msgTurnStart    = "TURN_START"
	msgScoreReveal  = "SCORE_REVEAL"
	msgRoundEnd     = "ROUND_END"
	msgGameEnd      = "GAME_END"
	msgError        = "ERROR"
)

// clientMessage is the single inbound envelope; unused fields stay empty
// depending on Type.
type clientMessage struct {
	Type     string          `json:"type"`
	Pack     json.RawMessage `json:"pack,omitempty"`     // CREATE_GAME
	Settings json.RawMessage `json:"settings,omitempty"` // CREATE_GAME
	Name     string          `json:"name,omitempty"`     // JOIN_GAME
	Language string          `json:"language,omitempty"` // JOIN_GAME / SET_LANGUAGE
	Answer   string          `json:"answer,omitempty"`   // SUBMIT_ANSWER
	IsTyping *bool           `json:"isTyping,omitempty"` // TYPING
	PlayerID string          `json:"playerId,omitempty"` // KICK_PLAYER
}

type gameCreatedMessage struct {
	Type string `json:"type"` // "GAME_CREATED"
	Code string `json:"code"`
}

type stateSyncMessage struct {
	Type    string       `json:"type"` // "STATE_SYNC"
	State   roomSnapshot `json:"state"`
	YourID  string       `json:"yourId"`
	YourKey string       `json:"yourKey,omitempty"` // reconnect secret, own seat only
}

type playerJoinedMessage struct {
	Type   string         `json:"type"` // "PLAYER_JOINED"
	Player playerSnapshot `json:"player"`
}

type playerLeftMessage struct {
	Type     string `json:"type"` // "PLAYER_LEFT"
	PlayerID string `json:"playerId"`
}

type playerTypingMessage struct {
	Type     string `json:"type"` // "PLAYER_TYPING"
	PlayerID string `json:"playerId"`
	IsTyping bool   `json:"isTyping"`
}

type turnStartMessage struct {
	Type          string `json:"type"` // "TURN_START"
	PlayerID      string `json:"playerId"`
	PlayerName    string `json:"playerName"`
	TimerDuration *int   `json:"timerDuration"` // seconds; null when the timer is off
}

type scoreRevealMessage struct {
	Type        string `json:"type"` // "SCORE_REVEAL"
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	Answer      string `json:"answer"`
	Score       int    `json:"score"`
	IsCorrect   bool   `json:"isCorrect"`
	IsPointless bool   `json:"isPointless"`
}

type roundEndMessage struct {
	Type               string     `json:"type"` // "ROUND_END"
	Standings          []standing `json:"standings"`
	EliminatedPlayerID string     `json:"eliminatedPlayerId,omitempty"`
}

type gameEndMessage struct {
	Type      string     `json:"type"` // "GAME_END"
	Winner    standing   `json:"winner"`
	Standings []standing `json:"standings"`
}

type errorMessage struct {
	Type    string `json:"type"` // "ERROR"
	Message string `json:"message"`
}

// standing is one row of a round-end or game-end scoreboard, sorted
// ascending: in this game the lowest score is the best one.
type standing struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
