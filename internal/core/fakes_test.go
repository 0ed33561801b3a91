package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// scriptedCompleter answers trait-extraction and question calls from
// separate queues. An empty queue repeats its last entry.
type scriptedCompleter struct {
	mu        sync.Mutex
	traits    []string
	questions []string
	failNext  int
	calls     []string
}

var errTransport = errors.New("connection refused")

func (c *scriptedCompleter) Complete(_ context.Context, system, user string, _ float64, _ int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, user)
	if c.failNext > 0 {
		c.failNext--
		return "", errTransport
	}
	if system == TraitExtractorPrompt {
		return pop(&c.traits, "{}"), nil
	}
	return pop(&c.questions, ""), nil
}

func pop(queue *[]string, empty string) string {
	if len(*queue) == 0 {
		return empty
	}
	next := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}
	return next
}

type mapTable map[string]models.CharacterFacts

func (m mapTable) Find(name string) (models.CharacterFacts, bool) {
	f, ok := m[strings.ToLower(name)]
	return f, ok
}

var testTable = mapTable{
	"superman":        {Powers: true, Gender: "male", Species: "alien", Fictional: true, Alignment: "hero"},
	"batman":          {Powers: false, Gender: "male", Species: "human", Fictional: true, Alignment: "hero"},
	"wonder woman":    {Powers: true, Gender: "female", Species: "demigod", Fictional: true, Alignment: "hero"},
	"joker":           {Powers: false, Gender: "male", Species: "human", Fictional: true, Alignment: "villain"},
	"abraham lincoln": {Powers: false, Gender: "male", Species: "human", Fictional: false},
}

// countingLookup returns facts by name and counts calls.
type countingLookup struct {
	mu    sync.Mutex
	facts map[string]*models.CharacterFacts
	err   error
	calls int
}

func (l *countingLookup) Lookup(ctx context.Context, name string) (*models.CharacterFacts, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.facts[strings.ToLower(name)], nil
}

type recordingEvents struct {
	mu     sync.Mutex
	events []string
	data   []map[string]any
}

func (r *recordingEvents) LogEvent(eventType string, data map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	r.data = append(r.data, data)
	return nil
}

// gameIDs returns the game_id of every recorded eventType event.
func (r *recordingEvents) gameIDs(eventType string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []any
	for i, e := range r.events {
		if e == eventType {
			ids = append(ids, r.data[i]["game_id"])
		}
	}
	return ids
}

func (r *recordingEvents) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == eventType {
			n++
		}
	}
	return n
}

func trait(key models.TraitKey, value string) models.Trait {
	return models.Trait{Key: key, Value: value, Confidence: 0.9}
}
