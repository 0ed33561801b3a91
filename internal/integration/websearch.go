package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

// Phrase lists used to classify a free-text description. Matching is on
// whole words.
var (
	realPersonIndicators = []string{
		"born", "died", "death", "president", "politician", "actor", "actress",
		"musician", "singer", "artist", "scientist", "inventor", "author", "writer",
		"director", "athlete", "sports", "ceo", "founder", "businessman", "businesswoman",
		"activist", "leader", "prime minister", "king", "queen", "emperor", "general",
		"served as", "elected", "biography", "historical figure", "nobel prize",
		"olympics", "world war", "assassination", "married to",
	}
	fictionalIndicators = []string{
		"fictional character", "character from", "protagonist", "antagonist",
		"appears in", "created by", "portrayed by", "voiced by", "anime", "manga",
		"comic book", "video game", "novel character", "movie character",
		"superhero", "supervillain",
	}
	malePronouns   = []string{"he", "his", "him", "himself", "male", "man", "boy"}
	femalePronouns = []string{"she", "her", "hers", "herself", "female", "woman", "girl"}

	// powerStems match inside words so "superpowers" counts as power.
	powerStems = []string{"power", "super", "magic", "abilit", "wizard", "mutant"}

	speciesCues = []struct {
		species string
		words   []string
	}{
		{"alien", []string{"alien", "extraterrestrial"}},
		{"robot", []string{"robot", "android", "cyborg"}},
		{"god", []string{"god", "goddess", "deity"}},
		{"animal", []string{"animal", "mouse", "duck", "creature"}},
	}
)

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// wordText lowercases s and pads its words with single spaces.
func wordText(s string) string {
	return " " + strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(s), " ")) + " "
}

func countPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		n += strings.Count(text, " "+p+" ")
	}
	return n
}

func hasAnyPhrase(text string, phrases []string) bool {
	return countPhrases(text, phrases) > 0
}

// ClassifyCharacterText guesses character facts from a search result's
// heading and abstract. It returns nil when both are empty.
func ClassifyCharacterText(heading, abstract string) *models.CharacterFacts {
	if strings.TrimSpace(heading) == "" && strings.TrimSpace(abstract) == "" {
		return nil
	}
	text := wordText(heading + " " + abstract)

	facts := &models.CharacterFacts{Fictional: true, Species: "human", Gender: "unknown"}

	realCount := countPhrases(text, realPersonIndicators)
	fictionalCount := countPhrases(text, fictionalIndicators)
	if realCount > fictionalCount {
		facts.Fictional = false
	}

	switch male, female := countPhrases(text, malePronouns), countPhrases(text, femalePronouns); {
	case male > female:
		facts.Gender = "male"
	case female > male:
		facts.Gender = "female"
	}

	if facts.Fictional {
		for _, stem := range powerStems {
			if strings.Contains(text, stem) {
				facts.Powers = true
				break
			}
		}
		for _, cue := range speciesCues {
			if hasAnyPhrase(text, cue.words) {
				facts.Species = cue.species
				break
			}
		}
	}

	switch {
	case strings.Contains(text, "hero") || strings.Contains(text, "protagonist") || strings.Contains(text, " saves "):
		facts.Alignment = "hero"
	case strings.Contains(text, "villain") || strings.Contains(text, "antagonist") || strings.Contains(text, " evil "):
		facts.Alignment = "villain"
	}
	return facts
}

type instantAnswer struct {
	Heading      string `json:"Heading"`
	Abstract     string `json:"Abstract"`
	AbstractText string `json:"AbstractText"`
}

// WebLookup classifies unknown guess names using the DuckDuckGo instant
// answer API. It satisfies core.CharacterLookup.
type WebLookup struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebLookup creates a lookup against cfg.Endpoint.
func NewWebLookup(cfg models.LookupConfig, logger *zap.Logger) *WebLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebLookup{
		endpoint:   cfg.Endpoint,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Lookup searches for name. It returns nil facts without an error when the
// search finds nothing.
func (w *WebLookup) Lookup(ctx context.Context, name string) (*models.CharacterFacts, error) {
	u, err := url.Parse(w.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing lookup endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", name)
	q.Set("format", "json")
	q.Set("no_html", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating lookup request: %w", err)
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching for %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching for %q: status %d", name, resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("decoding search result for %q: %w", name, err)
	}

	abstract := answer.Abstract
	if abstract == "" {
		abstract = answer.AbstractText
	}
	facts := ClassifyCharacterText(answer.Heading, abstract)
	if facts == nil {
		w.logger.Info("no search result for guess", zap.String("guess", name))
		return nil, nil
	}
	w.logger.Info("classified guess from search",
		zap.String("guess", name),
		zap.Bool("fictional", facts.Fictional),
		zap.String("gender", facts.Gender),
		zap.String("species", facts.Species),
		zap.Bool("powers", facts.Powers),
	)
	return facts, nil
}
