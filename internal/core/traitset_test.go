package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

func TestMergeTraits(t *testing.T) {
	tests := []struct {
		name     string
		existing []models.Trait
		incoming []models.Trait
		want     []models.Trait
	}{
		{
			name:     "single valued key replaced",
			existing: []models.Trait{{Key: models.KeyGender, Value: "male", Confidence: 0.9, TurnAdded: 2}},
			incoming: []models.Trait{{Key: models.KeyGender, Value: "female", Confidence: 0.8, TurnAdded: 5}},
			want:     []models.Trait{{Key: models.KeyGender, Value: "female", Confidence: 0.8, TurnAdded: 5}},
		},
		{
			name: "replacement keeps position",
			existing: []models.Trait{
				{Key: models.KeyFictional, Value: "true"},
				{Key: models.KeyOriginMedium, Value: "anime"},
				{Key: models.KeyGender, Value: "male"},
			},
			incoming: []models.Trait{{Key: models.KeyOriginMedium, Value: "manga"}},
			want: []models.Trait{
				{Key: models.KeyFictional, Value: "true"},
				{Key: models.KeyOriginMedium, Value: "manga"},
				{Key: models.KeyGender, Value: "male"},
			},
		},
		{
			name:     "category accumulates",
			existing: []models.Trait{{Key: models.KeyCategory, Value: "superhero"}},
			incoming: []models.Trait{{Key: models.KeyCategory, Value: "detective"}},
			want: []models.Trait{
				{Key: models.KeyCategory, Value: "superhero"},
				{Key: models.KeyCategory, Value: "detective"},
			},
		},
		{
			name:     "identical category not duplicated",
			existing: []models.Trait{{Key: models.KeyCategory, Value: "superhero"}},
			incoming: []models.Trait{{Key: models.KeyCategory, Value: "Superhero"}},
			want:     []models.Trait{{Key: models.KeyCategory, Value: "superhero"}},
		},
		{
			name:     "new key appended",
			existing: []models.Trait{{Key: models.KeyGender, Value: "male"}},
			incoming: []models.Trait{{Key: models.KeySpecies, Value: "human"}},
			want: []models.Trait{
				{Key: models.KeyGender, Value: "male"},
				{Key: models.KeySpecies, Value: "human"},
			},
		},
		{
			name:     "both empty",
			existing: nil,
			incoming: nil,
			want:     []models.Trait{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTraits(tt.existing, tt.incoming)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MergeTraits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeTraits_DoesNotModifyInputs(t *testing.T) {
	existing := []models.Trait{{Key: models.KeyGender, Value: "male"}}
	MergeTraits(existing, []models.Trait{{Key: models.KeyGender, Value: "female"}})
	if existing[0].Value != "male" {
		t.Errorf("existing trait modified to %q", existing[0].Value)
	}
}
