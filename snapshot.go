package main

// Client-facing views of room state. Snapshots never carry a category's
// answer list or point values: only the prompt, presentation metadata, and
// entries already revealed on the board. Leaking the answer set would
// defeat the game.

type playerSnapshot struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Language        string `json:"language,omitempty"`
	Score           int    `json:"score"`
	RoundScores     []int  `json:"roundScores"`
	Eliminated      bool   `json:"eliminated"`
	EliminatedRound int    `json:"eliminatedRound,omitempty"`
	Connected       bool   `json:"connected"`
	IsTyping        bool   `json:"isTyping"`
	LastAnswer      string `json:"lastAnswer,omitempty"`
}

type categorySnapshot struct {
	Prompt      string `json:"prompt"`
	Kind        string `json:"type"`
	AnswerCount int    `json:"answerCount"`
}

type boardEntrySnapshot struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	Correct    bool   `json:"correct"`
}

type roomSnapshot struct {
	Code            string               `json:"code"`
	Phase           gamePhase            `json:"phase"`
	Settings        Settings             `json:"settings"`
	PackName        string               `json:"packName,omitempty"`
	HasPack         bool                 `json:"hasPack"`
	Round           int                  `json:"round"`
	CurrentPlayerID string               `json:"currentPlayerId,omitempty"`
	Category        *categorySnapshot    `json:"category,omitempty"`
	Board           []boardEntrySnapshot `json:"board"`
	Players         []playerSnapshot     `json:"players"`
	Jackpot         int                  `json:"jackpot"`
	TimerSeconds    *int                 `json:"timerSeconds"`
}

func (p *Player) snapshot() playerSnapshot {
	scores := make([]int, len(p.RoundScores))
	copy(scores, p.RoundScores)

	return playerSnapshot{
		ID:              p.ID,
		Name:            p.Name,
		Language:        p.Language,
		Score:           p.Score,
		RoundScores:     scores,
		Eliminated:      p.Eliminated,
		EliminatedRound: p.EliminatedRound,
		Connected:       p.Connected,
		IsTyping:        p.IsTyping,
		LastAnswer:      p.LastAnswer,
	}
}

// snapshot renders the full client view of the room, in seat order.
func (r *Room) snapshot() roomSnapshot {
	snap := roomSnapshot{
		Code:     r.Code,
		Phase:    r.Phase,
		Settings: r.Settings,
		HasPack:  r.Pack != nil,
		Round:    r.Round,
		Board:    make([]boardEntrySnapshot, 0, len(r.Board)),
		Players:  make([]playerSnapshot, 0, len(r.order)),
		Jackpot:  r.Jackpot,
	}

	if r.Pack != nil {
		snap.PackName = r.Pack.Name
	}

	if r.Phase == phasePlaying || r.Phase == phaseRevealing {
		snap.CurrentPlayerID = r.currentPlayerID()
	}

	if r.Category != nil {
		snap.Category = &categorySnapshot{
			Prompt:      r.Category.Prompt,
			Kind:        r.Category.Kind,
			AnswerCount: len(r.Category.Answers),
		}
	}

	if r.Phase == phasePlaying && r.Settings.TimerEnabled {
		seconds := r.Settings.TimerSeconds
		snap.TimerSeconds = &seconds
	}

	for _, entry := range r.Board {
		snap.Board = append(snap.Board, boardEntrySnapshot{
			PlayerID:   entry.PlayerID,
			PlayerName: entry.PlayerName,
			Answer:     entry.Answer,
			Score:      entry.Score,
			Correct:    entry.Correct,
		})
	}

	for _, id := range r.order {
		if player := r.Players[id]; player != nil {
			snap.Players = append(snap.Players, player.snapshot())
		}
	}

	return snap
}
