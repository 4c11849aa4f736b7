package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Game modes. In party mode everyone plays every round; in tv-show mode the
// worst performer of each round is eliminated until one player remains.
const (
	modeParty  = "party"
	modeTVShow = "tv-show"
)

const (
	defaultRounds       = 5
	defaultTimerSeconds = 30
	maxAnswerScore      = 100
	// penaltyScore is charged for a pass, a miss, or a repeated answer.
	penaltyScore = 100
)

var errEmptyPack = errors.New("pack contains no categories")

// Answer is one entry in a category's closed answer set. Normalized keys are
// computed once at ingestion; the rest of the server never re-normalizes
// pack data.
type Answer struct {
	Text      string
	Score     int
	Aliases   []string
	key       string
	aliasKeys []string
}

// Category is one round's topic. Kind is presentation metadata (standard,
// anagram, picture, missing-word) that scoring never branches on.
type Category struct {
	Prompt  string
	Kind    string
	Answers []Answer
}

// Pack is the closed set of categories for one game, read-only once decoded.
type Pack struct {
	Name       string
	Categories []Category
}

// Settings are chosen by the host alongside the pack.
type Settings struct {
	Rounds       int    `json:"rounds"`
	TimerEnabled bool   `json:"timerEnabled"`
	TimerSeconds int    `json:"timerSeconds"`
	Mode         string `json:"mode"`
}

// Pack files in the wild disagree on field names, so the raw shapes accept
// every variant seen and decodePack picks the first non-empty one. Nothing
// past this boundary ever sees the variants.
type rawAnswer struct {
	Text    string   `json:"text"`
	Answer  string   `json:"answer"`
	Points  *int     `json:"points"`
	Score   *int     `json:"score"`
	Aliases []string `json:"aliases"`
}

type rawCategory struct {
	Prompt   string      `json:"prompt"`
	Question string      `json:"question"`
	Name     string      `json:"name"`
	Kind     string      `json:"type"`
	Answers  []rawAnswer `json:"answers"`
}

type rawPack struct {
	Name       string        `json:"name"`
	Categories []rawCategory `json:"categories"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodePack normalizes an external pack into the internal shape. Within a
// category, a later answer whose normalized key collides with an earlier one
// is dropped: first occurrence wins.
func decodePack(data json.RawMessage) (*Pack, error) {
	var raw rawPack
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding pack: %w", err)
	}

	if len(raw.Categories) == 0 {
		return nil, errEmptyPack
	}

	pack := &Pack{
		Name:       raw.Name,
		Categories: make([]Category, 0, len(raw.Categories)),
	}

	for _, rc := range raw.Categories {
		cat := Category{
			Prompt: firstNonEmpty(rc.Prompt, rc.Question, rc.Name),
			Kind:   firstNonEmpty(rc.Kind, "standard"),
		}
		if cat.Prompt == "" || len(rc.Answers) == 0 {
			continue
		}

		seen := make(map[string]bool, len(rc.Answers))

		for _, ra := range rc.Answers {
			text := firstNonEmpty(ra.Text, ra.Answer)
			if text == "" {
				continue
			}

			key := normalizeAnswer(text)
			if key == "" || seen[key] {
				log.Debug().Str("category", cat.Prompt).Str("answer", text).
					Msg("dropping answer with duplicate or empty key")
				continue
			}
			seen[key] = true

			score := 0
			switch {
			case ra.Points != nil:
				score = *ra.Points
			case ra.Score != nil:
				score = *ra.Score
			}
			if score < 0 {
				score = 0
			}
			if score > maxAnswerScore {
				score = maxAnswerScore
			}

			answer := Answer{
				Text:    text,
				Score:   score,
				Aliases: ra.Aliases,
				key:     key,
			}

			for _, alias := range ra.Aliases {
				ak := normalizeAnswer(alias)
				if ak == "" || ak == key || seen[ak] {
					continue
				}
				seen[ak] = true
				answer.aliasKeys = append(answer.aliasKeys, ak)
			}

			cat.Answers = append(cat.Answers, answer)
		}

		if len(cat.Answers) > 0 {
			pack.Categories = append(pack.Categories, cat)
		}
	}

	if len(pack.Categories) == 0 {
		return nil, errEmptyPack
	}

	return pack, nil
}

// decodeSettings applies defaults, then clamps the round count to the number
// of categories actually available in the pack.
func decodeSettings(data json.RawMessage, pack *Pack) Settings {
	settings := Settings{
		Rounds:       defaultRounds,
		TimerEnabled: false,
		TimerSeconds: defaultTimerSeconds,
		Mode:         modeParty,
	}

	if len(data) > 0 {
		var override struct {
			Rounds       *int    `json:"rounds"`
			TimerEnabled *bool   `json:"timerEnabled"`
			TimerSeconds *int    `json:"timerSeconds"`
			Mode         *string `json:"mode"`
		}
		if err := json.Unmarshal(data, &override); err == nil {
			if override.Rounds != nil && *override.Rounds > 0 {
				settings.Rounds = *override.Rounds
			}
			if override.TimerEnabled != nil {
				settings.TimerEnabled = *override.TimerEnabled
			}
			if override.TimerSeconds != nil && *override.TimerSeconds > 0 {
				settings.TimerSeconds = *override.TimerSeconds
			}
			if override.Mode != nil && (*override.Mode == modeParty || *override.Mode == modeTVShow) {
				settings.Mode = *override.Mode
			}
		}
	}

	if pack != nil && settings.Rounds > len(pack.Categories) {
		settings.Rounds = len(pack.Categories)
	}

	return settings
}
