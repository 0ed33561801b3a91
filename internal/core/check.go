package core

import "github.com/valter-silva-au/lemon-detective/pkg/models"

// CheckReport is the outcome of validating one question outside a game.
type CheckReport struct {
	Question string       `json:"question"`
	Repaired string       `json:"repaired"`
	Valid    bool         `json:"valid"`
	Reason   RejectReason `json:"reason,omitempty"`
	Fallback string       `json:"fallback,omitempty"`
	Realms   []string     `json:"realms,omitempty"`
}

// Check runs a proposed question through the same repair and validation as
// a live turn and, when it is rejected, names the fallback that would
// replace it.
func (e *Engine) Check(question string, prior []string, traits []models.Trait) CheckReport {
	repaired := RepairAlternativeQuestion(question)
	r := CheckReport{
		Question: question,
		Repaired: repaired,
		Realms:   RealmsOf(repaired),
	}
	r.Reason = e.Validate(repaired, prior, traits)
	r.Valid = r.Reason == RejectNone
	if !r.Valid {
		r.Fallback = e.PickFallback(prior, models.TraitKeys(traits), traits)
	}
	return r
}
