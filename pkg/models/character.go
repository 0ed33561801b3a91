package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CharacterFacts are the coarse facts used to check a guess against
// confirmed traits. Gender and Species are lowercase; Gender may be
// "unknown"; Alignment is empty, "hero" or "villain".
type CharacterFacts struct {
	Powers    bool   `json:"powers" yaml:"powers"`
	Gender    string `json:"gender" yaml:"gender"`
	Species   string `json:"species" yaml:"species"`
	Fictional bool   `json:"fictional" yaml:"fictional"`
	Alignment string `json:"alignment,omitempty" yaml:"alignment,omitempty"`
}

// KnownCharacter is one entry of the known-character table.
type KnownCharacter struct {
	Name           string `yaml:"name"`
	CharacterFacts `yaml:",inline"`
}

// NameKey is the lookup key for a character name: lowercase, accents
// removed, whitespace collapsed. "  Beyoncé " and "beyonce" share a key.
func NameKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
