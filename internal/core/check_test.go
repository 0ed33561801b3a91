package core

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

func TestEngine_Check(t *testing.T) {
	e := NewEngine(models.EngineConfig{}, nil)

	r := e.Check("Is your character from a movie or a TV show", nil, nil)
	if r.Repaired != "Is your character from a movie?" || !r.Valid || r.Fallback != "" {
		t.Errorf("Check(or question) = %+v", r)
	}

	traits := []models.Trait{trait(models.KeySpecies, "human")}
	r = e.Check("Does your character have wings?", []string{"Is your character human?"}, traits)
	if r.Valid || r.Reason != RejectIncompatible {
		t.Errorf("Check(wings) reason = %q, want %q", r.Reason, RejectIncompatible)
	}
	if r.Fallback == "" || r.Fallback == "Does your character have wings?" {
		t.Errorf("Check(wings) fallback = %q", r.Fallback)
	}
}

func TestParseTraits(t *testing.T) {
	traits, err := ParseTraits([]string{"Gender=male", "has-powers = false", "category=wizard", "category=student", "gender=female"})
	if err != nil {
		t.Fatalf("ParseTraits: %v", err)
	}
	if len(traits) != 4 {
		t.Fatalf("ParseTraits returned %d traits, want 4: %+v", len(traits), traits)
	}
	if g := models.FindTrait(traits, models.KeyGender); g == nil || g.Value != "female" {
		t.Errorf("gender = %+v, want female", g)
	}
	if p := models.FindTrait(traits, models.KeyHasPowers); p == nil || p.Value != "false" {
		t.Errorf("has_powers = %+v", p)
	}

	for _, bad := range []string{"gender", "gender=", "height=tall"} {
		if _, err := ParseTraits([]string{bad}); err == nil || !strings.Contains(err.Error(), bad) {
			t.Errorf("ParseTraits(%q) error = %v", bad, err)
		}
	}
}
