package models

// TraitKey identifies the category a Trait describes.
type TraitKey string

const (
	KeyGender       TraitKey = "gender"
	KeySpecies      TraitKey = "species"
	KeyFictional    TraitKey = "fictional"
	KeyOriginMedium TraitKey = "origin_medium"
	KeyHasPowers    TraitKey = "has_powers"
	KeyAlignment    TraitKey = "alignment"
	KeyMorality     TraitKey = "morality"
	KeyAgeGroup     TraitKey = "age_group"
	KeyHairColor    TraitKey = "hair_color"
	KeyHairStyle    TraitKey = "hair_style"
	KeyEyeColor     TraitKey = "eye_color"
	KeyClothing     TraitKey = "clothing"
	KeyAccessories  TraitKey = "accessories"
	KeySkinColor    TraitKey = "skin_color"
	KeyBodyType     TraitKey = "body_type"
	KeyFacialHair   TraitKey = "facial_hair"
	KeyCategory     TraitKey = "category"
)

// KnownTraitKeys lists every key the extractor accepts.
var KnownTraitKeys = []TraitKey{
	KeyGender, KeySpecies, KeyFictional, KeyOriginMedium, KeyHasPowers,
	KeyAlignment, KeyMorality, KeyAgeGroup, KeyHairColor, KeyHairStyle,
	KeyEyeColor, KeyClothing, KeyAccessories, KeySkinColor, KeyBodyType,
	KeyFacialHair, KeyCategory,
}

// IsKnownTraitKey reports whether k is one of KnownTraitKeys.
func IsKnownTraitKey(k TraitKey) bool {
	for _, known := range KnownTraitKeys {
		if k == known {
			return true
		}
	}
	return false
}

// IsMultiValued reports whether distinct values of k accumulate instead of
// replacing each other. Only category does; every other key holds one value.
func (k TraitKey) IsMultiValued() bool {
	return k == KeyCategory
}

// Trait is one structured fact about the secret character.
type Trait struct {
	Key        TraitKey `json:"key" yaml:"key"`
	Value      string   `json:"value" yaml:"value"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	TurnAdded  int      `json:"turn_added" yaml:"turn_added"`
}

// TraitKeys returns the set of keys present in traits.
func TraitKeys(traits []Trait) map[TraitKey]bool {
	keys := make(map[TraitKey]bool, len(traits))
	for _, t := range traits {
		keys[t.Key] = true
	}
	return keys
}

// FindTrait returns the first trait with the given key, or nil.
func FindTrait(traits []Trait, key TraitKey) *Trait {
	for i := range traits {
		if traits[i].Key == key {
			return &traits[i]
		}
	}
	return nil
}
