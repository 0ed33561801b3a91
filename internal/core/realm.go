package core

// RealmsOf returns the names of the topic realms question touches, in
// realm table order.
func RealmsOf(question string) []string {
	words := TopicWords(question)
	var realms []string
	for _, realm := range topicRealms {
		for w := range words {
			if _, ok := realm.Keywords[w]; ok {
				realms = append(realms, realm.Name)
				break
			}
		}
	}
	return realms
}

func touchesRealm(words map[string]struct{}, realm string) bool {
	for _, r := range topicRealms {
		if r.Name != realm {
			continue
		}
		for w := range words {
			if _, ok := r.Keywords[w]; ok {
				return true
			}
		}
	}
	return false
}

// Specificity scores how narrow question is within realm: 3 very specific
// ("blonde hair"), 2 moderate, 1 broad ("distinctive hair"), 0 generic.
func Specificity(question, realm string) int {
	padded := phraseText(question)
	scoring, ok := realmSpecificity[realm]
	if !ok {
		if containsAnyPhrase(padded, broadTier.Phrases) {
			return broadTier.Score
		}
		return 2
	}
	for _, tier := range scoring.Tiers {
		if containsAnyPhrase(padded, tier.Phrases) {
			return tier.Score
		}
	}
	return scoring.Default
}

// IsInAlreadyExploredRealm reports whether question falls in a realm an
// earlier question already touched without being strictly more specific
// than that earlier question.
func IsInAlreadyExploredRealm(question string, prior []string) bool {
	realms := RealmsOf(question)
	if len(realms) == 0 {
		return false
	}
	for _, p := range prior {
		priorWords := TopicWords(p)
		for _, realm := range realms {
			if !touchesRealm(priorWords, realm) {
				continue
			}
			if Specificity(question, realm) <= Specificity(p, realm) {
				return true
			}
		}
	}
	return false
}
