package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventsOfType[T any](events []any) []T {
	var out []T
	for _, event := range events {
		if typed, ok := event.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// startedRoom builds a room with the given players, loads a single-category
// pack, and starts the game.
func startedRoom(t *testing.T, settings Settings, names ...string) (*Room, []*Player) {
	t.Helper()

	r := newTestRoom()
	r.createGame(testPack(countriesCategory()), settings)

	players := make([]*Player, 0, len(names))
	for _, name := range names {
		players = append(players, r.addPlayer(name, "en"))
	}

	r.startGame()
	require.Equal(t, phasePlaying, r.Phase)
	r.drainEvents()

	return r, players
}

func partySettings(rounds int) Settings {
	return Settings{Rounds: rounds, TimerSeconds: 30, Mode: modeParty}
}

func TestScoringScenario(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b", "c")
	a, b, c := players[0], players[1], players[2]

	// a lands a valid 90-point answer.
	r.submitAnswer(a.ID, "france")
	assert.Equal(t, 90, a.Score)
	assert.Equal(t, phaseRevealing, r.Phase)

	reveals := eventsOfType[scoreRevealMessage](r.drainEvents())
	require.Len(t, reveals, 1)
	assert.Equal(t, "France", reveals[0].Answer)
	assert.Equal(t, 90, reveals[0].Score)
	assert.True(t, reveals[0].IsCorrect)
	assert.False(t, reveals[0].IsPointless)

	// b repeats it in a different case: flat penalty, not correct, even
	// though the text itself is a valid answer.
	r.advanceTurn()
	r.submitAnswer(b.ID, "FRANCE")
	assert.Equal(t, 100, b.Score)

	reveals = eventsOfType[scoreRevealMessage](r.drainEvents())
	require.Len(t, reveals, 1)
	assert.False(t, reveals[0].IsCorrect)
	assert.Equal(t, 100, reveals[0].Score)

	// c hits the pointless answer: zero points, jackpot grows.
	r.advanceTurn()
	r.submitAnswer(c.ID, "Andorra")
	assert.Equal(t, 0, c.Score)
	assert.Equal(t, 1250, r.Jackpot)

	reveals = eventsOfType[scoreRevealMessage](r.drainEvents())
	require.Len(t, reveals, 1)
	assert.True(t, reveals[0].IsCorrect)
	assert.True(t, reveals[0].IsPointless)
}

func TestSubmitAnswerOutOfTurnIsNoOp(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")
	b := players[1]

	r.drainEvents()
	r.submitAnswer(b.ID, "france")

	assert.Equal(t, 0, b.Score)
	assert.Empty(t, r.Board)
	assert.Equal(t, phasePlaying, r.Phase)
	assert.Empty(t, r.drainEvents())

	// Unknown ids are dropped the same way.
	r.submitAnswer("nobody", "france")
	assert.Equal(t, phasePlaying, r.Phase)
}

func TestSubmitAnswerPassAndMiss(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")
	a, b := players[0], players[1]

	r.submitAnswer(a.ID, "")
	assert.Equal(t, 100, a.Score)
	require.Len(t, r.Board, 1)
	assert.Equal(t, passDisplay, r.Board[0].Answer)
	assert.False(t, r.Board[0].Correct)

	r.advanceTurn()
	r.submitAnswer(b.ID, "Narnia")
	assert.Equal(t, 100, b.Score)
	require.Len(t, r.Board, 2)
	assert.Equal(t, "Narnia", r.Board[1].Answer)
	assert.False(t, r.Board[1].Correct)
}

func TestRoundScoresAccumulate(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a")
	a := players[0]

	r.submitAnswer(a.ID, "Malta")
	require.Equal(t, []int{5}, a.RoundScores)

	// Hand the seat a second turn within the same round; the slot must
	// accumulate, not overwrite.
	r.Phase = phasePlaying
	r.playerIdx = 0
	r.submitAnswer(a.ID, "")

	assert.Equal(t, []int{105}, a.RoundScores)
	assert.Equal(t, 105, a.Score)
}

func TestRoundEndsAfterLastSeat(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")

	r.submitAnswer(players[0].ID, "france")
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "malta")
	r.drainEvents()
	r.advanceTurn()

	assert.Equal(t, phaseRoundEnd, r.Phase)

	ends := eventsOfType[roundEndMessage](r.drainEvents())
	require.Len(t, ends, 1)
	require.Len(t, ends[0].Standings, 2)

	// Ascending: lowest cumulative score first.
	assert.Equal(t, players[1].ID, ends[0].Standings[0].PlayerID)
	assert.Equal(t, 5, ends[0].Standings[0].Score)
	assert.Equal(t, players[0].ID, ends[0].Standings[1].PlayerID)
	assert.Empty(t, ends[0].EliminatedPlayerID)
}

func TestGameEndWinnerIsLowestScore(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b", "c")

	r.submitAnswer(players[0].ID, "france") // 90
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "malta") // 5
	r.advanceTurn()
	r.submitAnswer(players[2].ID, "") // 100
	r.advanceTurn()

	require.Equal(t, phaseRoundEnd, r.Phase)
	r.drainEvents()
	r.advanceRound()

	assert.Equal(t, phaseGameOver, r.Phase)

	ends := eventsOfType[gameEndMessage](r.drainEvents())
	require.Len(t, ends, 1)
	assert.Equal(t, players[1].ID, ends[0].Winner.PlayerID)
	assert.Equal(t, 5, ends[0].Winner.Score)
	require.Len(t, ends[0].Standings, 3)
	assert.Equal(t, players[1].ID, ends[0].Standings[0].PlayerID)
}

func TestGameEndTieGoesToEarliestSeat(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")

	r.submitAnswer(players[0].ID, "") // 100
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "Narnia") // 100
	r.advanceTurn()
	r.drainEvents()
	r.advanceRound()

	ends := eventsOfType[gameEndMessage](r.drainEvents())
	require.Len(t, ends, 1)
	assert.Equal(t, players[0].ID, ends[0].Winner.PlayerID)
}

func TestTVShowElimination(t *testing.T) {
	t.Parallel()

	settings := Settings{Rounds: 3, TimerSeconds: 30, Mode: modeTVShow}
	r, players := startedRoom(t, settings, "a", "b")
	a, b := players[0], players[1]

	r.submitAnswer(a.ID, "") // round score 100
	r.advanceTurn()
	r.submitAnswer(b.ID, "malta") // round score 5
	r.drainEvents()
	r.advanceTurn()

	require.Equal(t, phaseRoundEnd, r.Phase)

	ends := eventsOfType[roundEndMessage](r.drainEvents())
	require.Len(t, ends, 1)

	// The worst round performer is eliminated, but still appears in this
	// round's standings.
	assert.Equal(t, a.ID, ends[0].EliminatedPlayerID)
	require.Len(t, ends[0].Standings, 2)
	assert.Equal(t, b.ID, ends[0].Standings[0].PlayerID)
	assert.Equal(t, a.ID, ends[0].Standings[1].PlayerID)

	assert.True(t, a.Eliminated)
	assert.Equal(t, 1, a.EliminatedRound)

	// One active player left: the next host advance ends the game early.
	r.advanceRound()
	assert.Equal(t, phaseGameOver, r.Phase)
}

func TestTVShowEliminationTieBrokenBySeatOrder(t *testing.T) {
	t.Parallel()

	settings := Settings{Rounds: 2, TimerSeconds: 30, Mode: modeTVShow}
	r, players := startedRoom(t, settings, "a", "b", "c")

	r.submitAnswer(players[0].ID, "") // 100
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "Narnia") // 100
	r.advanceTurn()
	r.submitAnswer(players[2].ID, "malta") // 5
	r.advanceTurn()

	ends := eventsOfType[roundEndMessage](r.drainEvents())
	require.Len(t, ends, 1)
	assert.Equal(t, players[0].ID, ends[0].EliminatedPlayerID)
}

func TestEliminatedSeatsAreSkipped(t *testing.T) {
	t.Parallel()

	settings := Settings{Rounds: 2, TimerSeconds: 30, Mode: modeTVShow}
	r, players := startedRoom(t, settings, "a", "b", "c")

	r.submitAnswer(players[0].ID, "") // worst
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "malta")
	r.advanceTurn()
	r.submitAnswer(players[2].ID, "andorra")
	r.advanceTurn()
	r.drainEvents()

	r.advanceRound()
	require.Equal(t, phasePlaying, r.Phase)
	require.Equal(t, 2, r.Round)

	// Round two opens with seat b: seat a was eliminated.
	turns := eventsOfType[turnStartMessage](r.drainEvents())
	require.Len(t, turns, 1)
	assert.Equal(t, players[1].ID, turns[0].PlayerID)
}

func TestDisconnectedActivePlayerAutoPasses(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")
	a := players[0]

	r.setDisconnected(a.ID)

	assert.False(t, a.Connected)
	assert.Equal(t, 100, a.Score)
	require.Len(t, r.Board, 1)
	assert.Equal(t, passDisplay, r.Board[0].Answer)
	assert.Equal(t, phaseRevealing, r.Phase)

	events := r.drainEvents()
	assert.Len(t, eventsOfType[playerLeftMessage](events), 1)
	assert.Len(t, eventsOfType[scoreRevealMessage](events), 1)
}

func TestDisconnectedSeatsAreSkipped(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b", "c")

	r.setDisconnected(players[1].ID)
	r.drainEvents()

	r.submitAnswer(players[0].ID, "malta")
	r.drainEvents()
	r.advanceTurn()

	// Seat b is offline, so the turn lands on c.
	turns := eventsOfType[turnStartMessage](r.drainEvents())
	require.Len(t, turns, 1)
	assert.Equal(t, players[2].ID, turns[0].PlayerID)
}

func TestDisconnectOfIdlePlayerDoesNotScore(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")
	b := players[1]

	r.setDisconnected(b.ID)

	assert.Equal(t, 0, b.Score)
	assert.Empty(t, r.Board)
	assert.Equal(t, phasePlaying, r.Phase)
}

func TestKickCurrentPlayerHandsTurnOver(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")

	r.removePlayer(players[0].ID)

	assert.NotContains(t, r.Players, players[0].ID)
	require.Equal(t, phasePlaying, r.Phase)

	events := r.drainEvents()
	assert.Len(t, eventsOfType[playerLeftMessage](events), 1)

	turns := eventsOfType[turnStartMessage](events)
	require.Len(t, turns, 1)
	assert.Equal(t, players[1].ID, turns[0].PlayerID)
}

func TestKickRevealedPlayerDoesNotSkipNextSeat(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b", "c")

	r.submitAnswer(players[0].ID, "france")
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "malta")
	require.Equal(t, phaseRevealing, r.Phase)
	r.drainEvents()

	// The seat on display is kicked mid-reveal; the host's next advance
	// must still reach seat c.
	r.removePlayer(players[1].ID)
	r.drainEvents()
	r.advanceTurn()

	require.Equal(t, phasePlaying, r.Phase)

	turns := eventsOfType[turnStartMessage](r.drainEvents())
	require.Len(t, turns, 1)
	assert.Equal(t, players[2].ID, turns[0].PlayerID)
}

func TestStartGameResetsPlayers(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, partySettings(1), "a", "b")
	a := players[0]

	r.submitAnswer(a.ID, "")
	r.advanceTurn()
	r.submitAnswer(players[1].ID, "malta")
	r.advanceTurn()
	r.drainEvents()
	r.advanceRound()
	require.Equal(t, phaseGameOver, r.Phase)

	r.startGame()

	assert.Equal(t, phasePlaying, r.Phase)
	assert.Equal(t, 1, r.Round)
	assert.Equal(t, startingJackpot, r.Jackpot)
	for _, player := range players {
		assert.Zero(t, player.Score)
		assert.Empty(t, player.RoundScores)
		assert.False(t, player.Eliminated)
	}
}

func TestStartGameRequiresPackAndPlayers(t *testing.T) {
	t.Parallel()

	r := newTestRoom()
	r.startGame()
	assert.Equal(t, phaseLobby, r.Phase)

	r.createGame(testPack(countriesCategory()), partySettings(1))
	r.startGame()
	assert.Equal(t, phaseLobby, r.Phase)
}

func TestDrawCategoriesRefillsSmallPacks(t *testing.T) {
	t.Parallel()

	r := newTestRoom()
	r.Pack = testPack(countriesCategory(), makeCategory("Other", Answer{Text: "X", Score: 1}))

	selected := r.drawCategories(5)
	assert.Len(t, selected, 5)
}

func TestTurnStartCarriesTimerDuration(t *testing.T) {
	t.Parallel()

	r := newTestRoom()
	r.createGame(testPack(countriesCategory()), Settings{
		Rounds:       1,
		TimerEnabled: true,
		TimerSeconds: 15,
		Mode:         modeParty,
	})
	r.addPlayer("a", "en")
	r.startGame()

	turns := eventsOfType[turnStartMessage](r.drainEvents())
	require.Len(t, turns, 1)
	require.NotNil(t, turns[0].TimerDuration)
	assert.Equal(t, 15, *turns[0].TimerDuration)

	// Timer off: the field is explicitly null.
	r2 := newTestRoom()
	r2.createGame(testPack(countriesCategory()), partySettings(1))
	r2.addPlayer("a", "en")
	r2.startGame()

	turns = eventsOfType[turnStartMessage](r2.drainEvents())
	require.Len(t, turns, 1)
	assert.Nil(t, turns[0].TimerDuration)
}

func TestScoreNeverDecreases(t *testing.T) {
	t.Parallel()

	r, players := startedRoom(t, Settings{Rounds: 2, TimerSeconds: 30, Mode: modeParty}, "a", "b")

	last := map[string]int{}
	submit := func(id, text string) {
		r.submitAnswer(id, text)
		for _, player := range players {
			assert.GreaterOrEqual(t, player.Score, last[player.ID])
			last[player.ID] = player.Score
		}
		r.advanceTurn()
	}

	submit(players[0].ID, "andorra")
	submit(players[1].ID, "france")
	r.advanceRound()
	submit(players[0].ID, "")
	submit(players[1].ID, "Narnia")

	assert.Equal(t, phaseRoundEnd, r.Phase)
}
