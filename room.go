package main

import (
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

type gamePhase string

const (
	phaseLobby     gamePhase = "lobby"
	phasePlaying   gamePhase = "playing"
	phaseRevealing gamePhase = "revealing"
	phaseRoundEnd  gamePhase = "roundEnd"
	phaseGameOver  gamePhase = "gameOver"
)

const (
	startingJackpot  = 1000
	jackpotIncrement = 250
	passDisplay      = "PASS"
)

// Player is one seat in a room. The record survives disconnects and is only
// removed by a host kick or room destruction.
type Player struct {
	ID              string
	Name            string
	Language        string
	Score           int
	RoundScores     []int
	Eliminated      bool
	EliminatedRound int
	Connected       bool
	IsTyping        bool
	LastAnswer      string

	// ReconnectKey is the secret a dropped client must present to reclaim
	// this seat. Shared only with the seat's own connection; the player id
	// alone is broadcast to everyone and is not a credential.
	ReconnectKey string
}

// boardEntry is one revealed submission on the current round's answer board.
type boardEntry struct {
	PlayerID   string
	PlayerName string
	Answer     string
	Score      int
	Correct    bool
}

// Room is the authoritative state of one game session. It is pure state:
// no sockets, no timers, no goroutines. Operations mutate the room and queue
// outbound events; the owning hub drains and delivers them. All calls must
// come from a single goroutine.
type Room struct {
	Code     string
	Phase    gamePhase
	Settings Settings
	Pack     *Pack
	HostID   string

	order   []string
	Players map[string]*Player

	Round      int
	playerIdx  int
	categories []*Category
	Category   *Category
	used       map[string]bool
	Board      []boardEntry
	Jackpot    int

	rng    *rand.Rand
	events []any
}

func newRoom(code string, rng *rand.Rand) *Room {
	return &Room{
		Code:    code,
		Phase:   phaseLobby,
		Players: make(map[string]*Player),
		rng:     rng,
	}
}

func (r *Room) emit(msg any) {
	r.events = append(r.events, msg)
}

// drainEvents returns queued events and clears the queue.
func (r *Room) drainEvents() []any {
	events := r.events
	r.events = nil
	return events
}

// addPlayer creates a fresh seat. Names are deliberately not deduplicated;
// two Alices are two players.
func (r *Room) addPlayer(name, language string) *Player {
	player := &Player{
		ID:           uuid.NewString(),
		Name:         name,
		Language:     language,
		Connected:    true,
		ReconnectKey: uuid.NewString(),
	}

	r.order = append(r.order, player.ID)
	r.Players[player.ID] = player

	r.emit(playerJoinedMessage{
		Type:   msgPlayerJoined,
		Player: player.snapshot(),
	})

	return player
}

// reattach marks an existing seat connected again after a successful
// reconnect token redemption.
func (r *Room) reattach(playerID string) *Player {
	player, ok := r.Players[playerID]
	if !ok {
		return nil
	}
	player.Connected = true
	return player
}

// setDisconnected flags the seat and, if that player currently holds the
// turn, records an automatic pass so the game does not stall.
func (r *Room) setDisconnected(playerID string) {
	player, ok := r.Players[playerID]
	if !ok {
		return
	}

	player.Connected = false
	player.IsTyping = false

	r.emit(playerLeftMessage{
		Type:     msgPlayerLeft,
		PlayerID: playerID,
	})

	if r.Phase == phasePlaying && r.currentPlayerID() == playerID {
		r.submitAnswer(playerID, "")
	}
}

// removePlayer deletes a seat entirely (host kick).
func (r *Room) removePlayer(playerID string) {
	if _, ok := r.Players[playerID]; !ok {
		return
	}

	wasCurrent := r.Phase == phasePlaying && r.currentPlayerID() == playerID

	delete(r.Players, playerID)
	for i, id := range r.order {
		if id != playerID {
			continue
		}
		r.order = append(r.order[:i], r.order[i+1:]...)
		if i < r.playerIdx {
			r.playerIdx--
		} else if i == r.playerIdx && r.Phase == phaseRevealing {
			// The reveal on display belonged to the removed seat; back
			// up so the next advance lands on the seat that shifted
			// into its place instead of skipping it.
			r.playerIdx--
		}
		break
	}

	r.emit(playerLeftMessage{
		Type:     msgPlayerLeft,
		PlayerID: playerID,
	})

	// Removal already shifted the next seat into place.
	if wasCurrent {
		r.startPlayerTurn()
	}
}

func (r *Room) setTyping(playerID string, isTyping bool) {
	player, ok := r.Players[playerID]
	if !ok || player.IsTyping == isTyping {
		return
	}

	player.IsTyping = isTyping

	r.emit(playerTypingMessage{
		Type:     msgPlayerTyping,
		PlayerID: playerID,
		IsTyping: isTyping,
	})
}

func (r *Room) setLanguage(playerID, language string) {
	if player, ok := r.Players[playerID]; ok && language != "" {
		player.Language = language
	}
}

// setupAllowed reports whether host setup commands are accepted. A finished
// game behaves like the lobby so the same room can host another round of
// play without reconnecting everyone.
func (r *Room) setupAllowed() bool {
	return r.Phase == phaseLobby || r.Phase == phaseGameOver
}

// createGame stores the pack and settings; the hub enforces that the caller
// is the host.
func (r *Room) createGame(pack *Pack, settings Settings) {
	if !r.setupAllowed() {
		return
	}
	r.Pack = pack
	r.Settings = settings
}

// startGame resets every seat, draws this game's categories, and enters the
// first round.
func (r *Room) startGame() {
	if !r.setupAllowed() || r.Pack == nil || len(r.order) == 0 {
		return
	}

	for _, player := range r.Players {
		player.Score = 0
		player.RoundScores = nil
		player.Eliminated = false
		player.EliminatedRound = 0
		player.IsTyping = false
		player.LastAnswer = ""
	}

	r.categories = r.drawCategories(r.Settings.Rounds)
	r.Settings.Rounds = len(r.categories)
	r.Round = 1
	r.Jackpot = startingJackpot

	r.startRound()
}

// drawCategories selects n categories without replacement, reshuffling and
// refilling if the pack holds fewer than requested.
func (r *Room) drawCategories(n int) []*Category {
	selected := make([]*Category, 0, n)

	for len(selected) < n {
		indexes := r.rng.Perm(len(r.Pack.Categories))
		for _, i := range indexes {
			if len(selected) == n {
				break
			}
			selected = append(selected, &r.Pack.Categories[i])
		}
	}

	return selected
}

func (r *Room) startRound() {
	r.Phase = phasePlaying
	r.Category = r.categories[r.Round-1]
	r.used = make(map[string]bool)
	r.Board = nil
	r.playerIdx = 0

	r.startPlayerTurn()
}

// startPlayerTurn hands the turn to the seat at the current index, skipping
// eliminated and disconnected players. Running off the end of the order ends
// the round.
func (r *Room) startPlayerTurn() {
	for r.playerIdx < len(r.order) {
		player := r.Players[r.order[r.playerIdx]]
		if player == nil || player.Eliminated || !player.Connected {
			r.playerIdx++
			continue
		}

		player.IsTyping = false
		player.LastAnswer = ""

		var duration *int
		if r.Settings.TimerEnabled {
			seconds := r.Settings.TimerSeconds
			duration = &seconds
		}

		r.emit(turnStartMessage{
			Type:          msgTurnStart,
			PlayerID:      player.ID,
			PlayerName:    player.Name,
			TimerDuration: duration,
		})

		return
	}

	r.endRound()
}

func (r *Room) currentPlayerID() string {
	if r.playerIdx < 0 || r.playerIdx >= len(r.order) {
		return ""
	}
	return r.order[r.playerIdx]
}

// submitAnswer scores one submission by the current turn-holder. Empty text
// is a pass. Submissions from anyone else are dropped without any state
// change, which also settles races between a late answer and an expired
// turn timer.
func (r *Room) submitAnswer(playerID, text string) {
	if r.Phase != phasePlaying || playerID != r.currentPlayerID() {
		return
	}

	player := r.Players[playerID]
	display := text
	score := penaltyScore
	correct := false

	key := normalizeAnswer(text)

	switch {
	case text == "":
		display = passDisplay

	case r.used[key]:
		// Repeats are penalized even when the text itself is a valid
		// answer for the category.

	default:
		if answer := r.Category.resolve(key); answer != nil {
			score = answer.Score
			correct = true
			display = answer.Text
			r.used[key] = true

			if score == 0 {
				r.Jackpot += jackpotIncrement
			}
		}
	}

	player.Score += score
	for len(player.RoundScores) < r.Round {
		player.RoundScores = append(player.RoundScores, 0)
	}
	player.RoundScores[r.Round-1] += score
	player.LastAnswer = display
	player.IsTyping = false

	r.Board = append(r.Board, boardEntry{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Answer:     display,
		Score:      score,
		Correct:    correct,
	})

	r.Phase = phaseRevealing

	r.emit(scoreRevealMessage{
		Type:        msgScoreReveal,
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		Answer:      display,
		Score:       score,
		IsCorrect:   correct,
		IsPointless: correct && score == 0,
	})
}

// advanceTurn moves on after a reveal (host control).
func (r *Room) advanceTurn() {
	if r.Phase != phaseRevealing {
		return
	}

	r.Phase = phasePlaying
	r.playerIdx++
	r.startPlayerTurn()
}

// activePlayers returns non-eliminated seats in seat order.
func (r *Room) activePlayers() []*Player {
	active := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if player := r.Players[id]; player != nil && !player.Eliminated {
			active = append(active, player)
		}
	}
	return active
}

// sortStandings orders ascending by cumulative score: lowest is best.
// The sort is stable over seat order, which is the documented tie-break.
func sortStandings(players []*Player) []standing {
	sorted := make([]*Player, len(players))
	copy(sorted, players)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score < sorted[j].Score
	})

	standings := make([]standing, 0, len(sorted))
	for _, player := range sorted {
		standings = append(standings, standing{
			PlayerID: player.ID,
			Name:     player.Name,
			Score:    player.Score,
		})
	}
	return standings
}

// endRound closes the round. In tv-show mode the worst round performer is
// eliminated (earliest seat wins a tie for worst).
func (r *Room) endRound() {
	r.Phase = phaseRoundEnd

	active := r.activePlayers()
	standings := sortStandings(active)

	eliminatedID := ""
	if r.Settings.Mode == modeTVShow && len(active) > 1 {
		var worst *Player
		for _, player := range active {
			if worst == nil || player.roundScore(r.Round) > worst.roundScore(r.Round) {
				worst = player
			}
		}
		if worst != nil {
			worst.Eliminated = true
			worst.EliminatedRound = r.Round
			eliminatedID = worst.ID
		}
	}

	r.emit(roundEndMessage{
		Type:               msgRoundEnd,
		Standings:          standings,
		EliminatedPlayerID: eliminatedID,
	})
}

func (p *Player) roundScore(round int) int {
	if round < 1 || round > len(p.RoundScores) {
		return 0
	}
	return p.RoundScores[round-1]
}

// advanceRound starts the next round, or ends the game after the final round
// or once at most one active player remains (host control).
func (r *Room) advanceRound() {
	if r.Phase != phaseRoundEnd {
		return
	}

	if r.Round >= r.Settings.Rounds || len(r.activePlayers()) <= 1 {
		r.endGame()
		return
	}

	r.Round++
	r.startRound()
}

// endGame ranks every seat, eliminated or not, ascending by total. The
// winner is the lowest scorer; ties go to the earliest seat.
func (r *Room) endGame() {
	r.Phase = phaseGameOver
	r.Category = nil

	all := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		if player := r.Players[id]; player != nil {
			all = append(all, player)
		}
	}

	standings := sortStandings(all)
	if len(standings) == 0 {
		return
	}

	r.emit(gameEndMessage{
		Type:      msgGameEnd,
		Winner:    standings[0],
		Standings: standings,
	})
}
