package main

import (
	"math/rand"
	"sync"
	"time"
)

// Shared fixtures for the game tests.

func makeCategory(prompt string, answers ...Answer) Category {
	for i := range answers {
		answers[i].key = normalizeAnswer(answers[i].Text)
		for _, alias := range answers[i].Aliases {
			answers[i].aliasKeys = append(answers[i].aliasKeys, normalizeAnswer(alias))
		}
	}

	return Category{
		Prompt:  prompt,
		Kind:    "standard",
		Answers: answers,
	}
}

func countriesCategory() Category {
	return makeCategory("Countries that border Spain",
		Answer{Text: "France", Score: 90},
		Answer{Text: "Malta", Score: 5},
		Answer{Text: "Andorra", Score: 0},
		Answer{Text: "Côte d'Ivoire", Score: 20, Aliases: []string{"Ivory Coast"}},
	)
}

func testPack(categories ...Category) *Pack {
	return &Pack{
		Name:       "test pack",
		Categories: categories,
	}
}

// newTestRoom returns a room with a fixed seed so category selection is
// deterministic.
func newTestRoom() *Room {
	return newRoom("TEST", rand.New(rand.NewSource(1)))
}

// manualTimers is a timerFactory that never sleeps; tests fire or cancel
// scheduled tasks by hand.
type manualTimers struct {
	mu    sync.Mutex
	tasks []*manualTask
}

type manualTask struct {
	d         time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

func (m *manualTimers) factory(d time.Duration, fn func()) cancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	task := &manualTask{d: d, fn: fn}
	m.tasks = append(m.tasks, task)

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		task.cancelled = true
	}
}

// pending returns scheduled tasks that have neither fired nor been
// cancelled.
func (m *manualTimers) pending() []*manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*manualTask
	for _, task := range m.tasks {
		if !task.fired && !task.cancelled {
			out = append(out, task)
		}
	}
	return out
}

// fire runs every pending task, as if its deadline had passed.
func (m *manualTimers) fire() {
	for _, task := range m.pending() {
		m.mu.Lock()
		task.fired = true
		m.mu.Unlock()

		task.fn()
	}
}
