package storage

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

//go:embed characters.yaml
var builtinCharacters []byte

// CharacterTable maps character names to known facts. It satisfies
// core.CharacterTable.
type CharacterTable struct {
	entries map[string]models.CharacterFacts
}

// LoadCharacterTable reads the built-in table and, when userFile is set,
// merges the entries from that YAML file over it.
func LoadCharacterTable(userFile string) (*CharacterTable, error) {
	t := &CharacterTable{entries: make(map[string]models.CharacterFacts)}
	if err := t.merge(builtinCharacters); err != nil {
		return nil, fmt.Errorf("loading built-in characters: %w", err)
	}
	if userFile == "" {
		return t, nil
	}

	data, err := os.ReadFile(userFile) //nolint:gosec // G304: path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("reading characters file %s: %w", userFile, err)
	}
	if err := t.merge(data); err != nil {
		return nil, fmt.Errorf("loading characters file %s: %w", userFile, err)
	}
	return t, nil
}

func (t *CharacterTable) merge(data []byte) error {
	var list []models.KnownCharacter
	if err := yaml.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parsing characters: %w", err)
	}
	for i, c := range list {
		key := models.NameKey(c.Name)
		if key == "" {
			return fmt.Errorf("character %d has no name", i+1)
		}
		t.entries[key] = c.CharacterFacts
	}
	return nil
}

// Find returns the facts for name.
func (t *CharacterTable) Find(name string) (models.CharacterFacts, bool) {
	f, ok := t.entries[models.NameKey(name)]
	return f, ok
}

// Len returns the number of known characters.
func (t *CharacterTable) Len() int {
	return len(t.entries)
}

// Names returns the known names in sorted order.
func (t *CharacterTable) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
