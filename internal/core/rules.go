package core

import (
	"regexp"

	"github.com/valter-silva-au/lemon-detective/pkg/models"
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// stopWords carry no topical meaning.
var stopWords = wordSet(
	"is", "your", "character", "a", "an", "the", "does", "did", "do", "are", "was", "were",
	"from", "of", "in", "to", "for", "at", "by", "with", "has", "have", "had", "be", "been",
	"this", "that", "it", "its", "they", "their", "or", "and", "not", "any", "ever",
	"primarily", "mainly", "mostly", "based", "known", "typically", "often", "usually",
	"use", "uses", "wear", "wears", "wearing", "associated", "part",
	"specific", "particular", "certain", "background",
)

// forbiddenPatterns mark questions too narrow to split the candidate space.
var forbiddenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)background in`),
	regexp.MustCompile(`(?i)background as`),
	regexp.MustCompile(`(?i)history of`),
	regexp.MustCompile(`(?i)history as`),
	regexp.MustCompile(`(?i)experience in`),
	regexp.MustCompile(`(?i)experience as`),
	regexp.MustCompile(`(?i)training in`),
	regexp.MustCompile(`(?i)training as`),
	regexp.MustCompile(`(?i)career in`),
	regexp.MustCompile(`(?i)career as`),
	regexp.MustCompile(`(?i)profession of`),
	regexp.MustCompile(`(?i)work as a [a-z]+\s[a-z]+`),
}

// synonymGroups hold true synonyms only. Different values of one category
// (hero and villain, sword and gun) are deliberately kept apart.
var synonymGroups = []map[string]struct{}{
	wordSet("fictional", "imaginary", "fantasy"),
	wordSet("real", "reality", "actual"),
	wordSet("male", "man", "boy"),
	wordSet("female", "woman", "girl"),
	wordSet("gender", "sex"),
	wordSet("human", "person", "people", "mortal"),
	wordSet("anime", "manga"),
	wordSet("cartoon", "animated", "animation"),
	wordSet("game", "gaming", "videogame", "video"),
	wordSet("movie", "film", "cinema"),
	wordSet("show", "television", "series", "program"),
	wordSet("comic", "comics", "graphic"),
	wordSet("power", "powers", "ability", "abilities"),
	wordSet("supernatural", "magic", "magical"),
	wordSet("hero", "superhero", "protagonist"),
	wordSet("villain", "supervillain", "antagonist"),
	wordSet("team", "group", "crew", "squad", "organization"),
	wordSet("weapon", "weapons", "armed"),
	wordSet("political", "politics", "politician", "campaign", "election", "elected", "office"),
	wordSet("government", "govern", "governance", "administration"),
	wordSet("debate", "debating", "argument", "arguing"),
	wordSet("rival", "enemy", "opposition", "opponent", "adversary", "foe"),
	wordSet("ally", "allies", "friend", "partner", "supporter"),
	wordSet("reform", "change", "transformation", "reforming"),
	wordSet("legislation", "law", "laws", "legal", "legislative"),
	wordSet("advocacy", "advocate", "advocating", "champion", "championing"),
	wordSet("communication", "communicate", "communicating", "message", "messaging"),
	wordSet("journalism", "journalist", "reporter", "press", "news", "media"),
	wordSet("background", "history", "experience", "training", "education", "studied"),
	wordSet("occupation", "job", "career", "profession", "work", "working", "employed"),
}

// traitKeywords maps a confirmed trait key to the fingerprint words that
// would ask about it again.
var traitKeywords = map[models.TraitKey]map[string]struct{}{
	models.KeyOriginMedium: wordSet("originate", "originated", "anime", "manga", "game", "videogame", "video",
		"movie", "film", "show", "television", "series", "comic", "comics", "book", "graphic", "novel"),
	models.KeyFictional: wordSet("fictional", "real", "reality", "imaginary", "fantasy", "exist"),
	models.KeyGender:    wordSet("male", "female", "gender", "man", "woman", "boy", "girl"),
	models.KeySpecies: wordSet("human", "person", "people", "humanoid", "mortal", "alien", "robot",
		"animal", "creature"),
	models.KeyHasPowers: wordSet("power", "powers", "ability", "abilities", "supernatural", "magic",
		"magical", "superpower"),
	models.KeyAlignment: wordSet("hero", "heroic", "villain", "antagonist", "protagonist", "good", "evil", "bad"),
	models.KeyMorality:  wordSet("good", "bad", "evil", "moral", "immoral", "ethical"),
	models.KeyAgeGroup:  wordSet("child", "kid", "teenager", "teen", "adult", "young", "old", "age"),
}

// incompatibilityRule rejects questions naming any of Terms once the
// character is known to satisfy When. Terms match whole words, with an
// optional plural "s".
type incompatibilityRule struct {
	Name  string
	When  func(species, hasPowers, fictional string) bool
	Terms []string
}

var incompatibilityRules = []incompatibilityRule{
	{
		Name: "non-human anatomy on a human",
		When: func(species, _, _ string) bool {
			return species == "human" || species == "person" || species == "mortal"
		},
		Terms: []string{
			"tail", "wing", "scale", "scaled", "pointed ears", "pointy ears", "elf ears",
			"antenna", "antennae", "tentacle", "claw", "fang", "fur", "furry", "feather",
			"beak", "snout", "muzzle", "horn", "hoove", "hooves",
		},
	},
	{
		Name: "specific power without powers",
		When: func(_, hasPowers, _ string) bool {
			return hasPowers == "false" || hasPowers == "no"
		},
		Terms: []string{
			"fly", "flies", "flying", "flight", "teleport", "teleporting", "teleportation",
			"telepathy", "telepathic", "telekinesis", "super strength", "super speed",
			"invisibility", "invisible", "time control", "control time", "time travel",
			"shapeshift", "shapeshifter", "shapeshifting", "transform", "transforming",
			"heal others", "healing power", "mind reading", "read mind", "laser",
			"energy blast", "fire power", "ice power", "lightning", "x ray vision",
			"enhanced senses", "regeneration", "regenerate", "immortal", "immortality",
		},
	},
	{
		Name: "fantasy element on a real person",
		When: func(_, _, fictional string) bool {
			return fictional == "false" || fictional == "no" || fictional == "real"
		},
		Terms: []string{
			"magic", "magical", "spell", "wizard", "witch", "witches", "supernatural",
			"vampire", "werewolf", "werewolves", "zombie", "ghost", "demon", "angel",
			"dragon", "elf", "elves", "dwarf", "dwarves", "orc", "fairy", "fairies",
			"mythical", "legendary creature",
		},
	},
}

// topicRealms group fingerprint words into broad topical buckets.
var topicRealms = []struct {
	Name     string
	Keywords map[string]struct{}
}{
	{"hair", wordSet("hair", "hairstyle", "blonde", "brunette", "redhead", "blackhaired", "bald", "shaved",
		"longhaired", "shorthaired", "curly", "straight")},
	{"clothing", wordSet("clothing", "clothes", "wear", "costume", "armor", "uniform", "suit", "dress",
		"cape", "cloak", "hat", "mask", "outfit")},
	{"accessories", wordSet("accessories", "accessory", "glasses", "eyewear", "jewelry", "necklace",
		"ring", "bracelet", "watch", "belt", "gloves")},
	{"eyes", wordSet("eye", "eyes", "eyecolor", "blueeyed", "browneyed", "greeneyed", "glowingeyes")},
	{"build", wordSet("build", "body", "physique", "muscular", "thin", "fat", "tall", "short",
		"athletic", "strong", "weak")},
	{"face", wordSet("face", "facial", "beard", "mustache", "goatee", "scar", "tattoo", "marking")},
	{"powers", wordSet("power", "powers", "ability", "abilities", "superpower", "supernatural", "magic",
		"strength", "flight", "speed", "teleport")},
	{"weapons", wordSet("weapon", "weapons", "sword", "gun", "knife", "blade", "bow", "staff", "armed",
		"armedcombat")},
	{"relationships", wordSet("relationship", "partner", "spouse", "friend", "ally", "sidekick",
		"companion", "mentor", "student")},
	{"location", wordSet("location", "place", "city", "country", "planet", "world", "live", "from", "reside")},
	{"occupation", wordSet("occupation", "job", "work", "career", "profession", "employed", "worker")},
	{"personality", wordSet("personality", "charactertrait", "brave", "cowardly", "smart", "intelligent",
		"funny", "serious", "kind", "cruel", "arrogant", "humble")},
}

// specificityTier assigns Score to questions containing any of Phrases.
type specificityTier struct {
	Score   int
	Phrases []string
}

// broadTier marks generic "anything distinctive?" questions.
var broadTier = specificityTier{Score: 1, Phrases: []string{"distinctive", "specific", "notable", "known for"}}

// realmSpecificity scores questions within a realm: 3 very specific,
// 2 moderate, 1 broad, 0 generic. Tiers are tried in order and the first hit
// wins; Default applies when none match.
var realmSpecificity = map[string]struct {
	Tiers   []specificityTier
	Default int
}{
	"hair": {Tiers: []specificityTier{
		{3, []string{"blonde", "brunette", "redhead"}},
		{2, []string{"long", "short", "curly"}},
		{1, []string{"distinctive", "hair color"}},
	}},
	"clothing": {Tiers: []specificityTier{
		{3, []string{"red cape", "blue suit"}},
		{2, []string{"cape", "armor", "costume"}},
		{1, []string{"distinctive", "special clothing"}},
	}},
	"accessories": {Tiers: []specificityTier{
		{3, []string{"round glasses", "gold ring"}},
		{2, []string{"glasses", "jewelry"}},
		{1, []string{"distinctive", "accessories"}},
	}},
	"eyes": {Default: 2, Tiers: []specificityTier{
		{3, []string{"blue eyes", "green eyes", "brown eyes", "red eyes", "glowing eyes",
			"blue eyed", "green eyed", "brown eyed"}},
		broadTier,
	}},
	"build": {Default: 2, Tiers: []specificityTier{
		{3, []string{"muscular", "athletic", "skinny", "tall"}},
		broadTier,
	}},
	"face": {Default: 2, Tiers: []specificityTier{
		{3, []string{"beard", "mustache", "goatee", "scar", "scars", "tattoo", "tattoos"}},
		broadTier,
	}},
	"powers": {Default: 2, Tiers: []specificityTier{
		{3, []string{"flight", "fly", "teleport", "telepathy", "super strength", "super speed", "invisibility"}},
		broadTier,
	}},
	"weapons": {Default: 2, Tiers: []specificityTier{
		{3, []string{"sword", "gun", "knife", "bow", "blade"}},
		broadTier,
	}},
	"relationships": {Default: 2, Tiers: []specificityTier{
		{3, []string{"spouse", "sidekick", "mentor"}},
		broadTier,
	}},
	"location": {Default: 2, Tiers: []specificityTier{
		{3, []string{"city", "country", "planet"}},
		broadTier,
	}},
	"personality": {Default: 2, Tiers: []specificityTier{
		{3, []string{"brave", "cowardly", "smart", "intelligent", "funny", "serious", "kind", "cruel",
			"arrogant", "humble"}},
		broadTier,
	}},
}

// specificCategoryKeys have many possible values, so a negative answer to
// one of them says nothing about what the value is.
var specificCategoryKeys = map[models.TraitKey]bool{
	models.KeyOriginMedium: true,
	models.KeyHairColor:    true,
	models.KeyEyeColor:     true,
	models.KeyClothing:     true,
	models.KeyAccessories:  true,
	models.KeySkinColor:    true,
}

// blockedTraitValues carry no information.
var blockedTraitValues = map[string]bool{
	"unknown": true, "unclear": true, "n/a": true, "none": true,
	"not_applicable": true, "{}": true, "": true,
}

// binaryPattern infers a trait from a yes/no question without asking the
// model. Keywords match whole words or phrases.
type binaryPattern struct {
	Keywords      []string
	Key           models.TraitKey
	PositiveValue string
	NegativeValue string
}

var binaryPatterns = []binaryPattern{
	{[]string{"human"}, models.KeySpecies, "human", "non-human"},
	{[]string{"hero", "heroic", "protagonist"}, models.KeyAlignment, "hero", "non-hero"},
	{[]string{"villain", "antagonist", "evil"}, models.KeyAlignment, "villain", "non-villain"},
	{[]string{"good", "good guy"}, models.KeyMorality, "good", "not-good"},
	{[]string{"bad", "bad guy"}, models.KeyMorality, "bad", "not-bad"},
	{[]string{"adult"}, models.KeyAgeGroup, "adult", "non-adult"},
	{[]string{"child", "kid"}, models.KeyAgeGroup, "child", "not-child"},
	{[]string{"teenager", "teen"}, models.KeyAgeGroup, "teenager", "not-teenager"},
	{[]string{"male", "man", "boy"}, models.KeyGender, "male", "female"},
	{[]string{"female", "woman", "girl"}, models.KeyGender, "female", "male"},
	{[]string{"robot", "robotic", "android"}, models.KeySpecies, "robot", "non-robot"},
	{[]string{"alien", "extraterrestrial"}, models.KeySpecies, "alien", "non-alien"},
	{[]string{"animal", "creature"}, models.KeySpecies, "animal", "non-animal"},
}
