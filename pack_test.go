package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePackFieldVariants(t *testing.T) {
	t.Parallel()

	// Three sources, three naming conventions, one canonical result.
	data := json.RawMessage(`{
		"name": "mixed",
		"categories": [
			{"prompt": "Capitals", "answers": [{"text": "Paris", "points": 40}]},
			{"question": "Rivers", "answers": [{"answer": "Nile", "score": 10}]},
			{"name": "Seas", "type": "anagram", "answers": [{"text": "Baltic"}]}
		]
	}`)

	pack, err := decodePack(data)
	require.NoError(t, err)
	require.Len(t, pack.Categories, 3)

	assert.Equal(t, "Capitals", pack.Categories[0].Prompt)
	assert.Equal(t, "standard", pack.Categories[0].Kind)
	assert.Equal(t, 40, pack.Categories[0].Answers[0].Score)

	assert.Equal(t, "Rivers", pack.Categories[1].Prompt)
	assert.Equal(t, "Nile", pack.Categories[1].Answers[0].Text)
	assert.Equal(t, 10, pack.Categories[1].Answers[0].Score)

	assert.Equal(t, "Seas", pack.Categories[2].Prompt)
	assert.Equal(t, "anagram", pack.Categories[2].Kind)
	assert.Equal(t, 0, pack.Categories[2].Answers[0].Score)
}

func TestDecodePackDuplicateKeysFirstWins(t *testing.T) {
	t.Parallel()

	data := json.RawMessage(`{
		"categories": [
			{"prompt": "Dupes", "answers": [
				{"text": "Côte d'Ivoire", "points": 20},
				{"text": "cote d ivoire", "points": 80},
				{"text": "Ghana", "points": 30}
			]}
		]
	}`)

	pack, err := decodePack(data)
	require.NoError(t, err)
	require.Len(t, pack.Categories, 1)

	answers := pack.Categories[0].Answers
	require.Len(t, answers, 2)
	assert.Equal(t, "Côte d'Ivoire", answers[0].Text)
	assert.Equal(t, 20, answers[0].Score)
	assert.Equal(t, "Ghana", answers[1].Text)
}

func TestDecodePackClampsScores(t *testing.T) {
	t.Parallel()

	data := json.RawMessage(`{
		"categories": [
			{"prompt": "Clamped", "answers": [
				{"text": "High", "points": 250},
				{"text": "Low", "points": -10}
			]}
		]
	}`)

	pack, err := decodePack(data)
	require.NoError(t, err)

	answers := pack.Categories[0].Answers
	assert.Equal(t, 100, answers[0].Score)
	assert.Equal(t, 0, answers[1].Score)
}

func TestDecodePackRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := decodePack(json.RawMessage(`{"categories": []}`))
	assert.ErrorIs(t, err, errEmptyPack)

	_, err = decodePack(json.RawMessage(`{"categories": [{"prompt": "No answers", "answers": []}]}`))
	assert.ErrorIs(t, err, errEmptyPack)

	_, err = decodePack(json.RawMessage(`not json`))
	assert.Error(t, err)
}

func TestDecodeSettingsDefaults(t *testing.T) {
	t.Parallel()

	pack := testPack(
		countriesCategory(), countriesCategory(), countriesCategory(),
		countriesCategory(), countriesCategory(), countriesCategory(),
	)

	settings := decodeSettings(nil, pack)

	assert.Equal(t, 5, settings.Rounds)
	assert.False(t, settings.TimerEnabled)
	assert.Equal(t, 30, settings.TimerSeconds)
	assert.Equal(t, modeParty, settings.Mode)
}

func TestDecodeSettingsClampsRounds(t *testing.T) {
	t.Parallel()

	pack := testPack(countriesCategory(), countriesCategory())

	settings := decodeSettings(json.RawMessage(`{"rounds": 10}`), pack)

	assert.Equal(t, 2, settings.Rounds)
}

func TestDecodeSettingsOverrides(t *testing.T) {
	t.Parallel()

	pack := testPack(
		countriesCategory(), countriesCategory(), countriesCategory(), countriesCategory(),
	)

	settings := decodeSettings(json.RawMessage(`{
		"rounds": 3,
		"timerEnabled": true,
		"timerSeconds": 15,
		"mode": "tv-show"
	}`), pack)

	assert.Equal(t, 3, settings.Rounds)
	assert.True(t, settings.TimerEnabled)
	assert.Equal(t, 15, settings.TimerSeconds)
	assert.Equal(t, modeTVShow, settings.Mode)

	// Unknown modes fall back to the default.
	settings = decodeSettings(json.RawMessage(`{"mode": "battle-royale"}`), pack)
	assert.Equal(t, modeParty, settings.Mode)
}
