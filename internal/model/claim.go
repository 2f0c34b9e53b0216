package model

// Claim is a canonical proposition extracted from the dialogue ahead of time.
// Claims anchor cluster identity: a cluster exists only for a claim.
type Claim struct {
	ID              string   `json:"id" yaml:"id"`
	Text            string   `json:"text" yaml:"text"`
	Speaker         string   `json:"speaker" yaml:"speaker"`
	Type            string   `json:"type" yaml:"type"` // ontological, epistemological, ethical, methodological
	RelatedConcepts []string `json:"related_concepts,omitempty" yaml:"related_concepts,omitempty"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeOntological     ClaimType = "ontological"     // Claims about what exists
	ClaimTypeEpistemological ClaimType = "epistemological" // Claims about what can be known
	ClaimTypeEthical         ClaimType = "ethical"         // Claims about right and wrong
	ClaimTypeMethodological  ClaimType = "methodological"  // Claims about how to inquire
)

// ClaimSet is the claim file as produced by the extraction stage
type ClaimSet struct {
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Claims   []Claim        `json:"claims" yaml:"claims"`
}

// Known reports whether t is one of the recognised claim types
func (t ClaimType) Known() bool {
	switch t {
	case ClaimTypeOntological, ClaimTypeEpistemological, ClaimTypeEthical, ClaimTypeMethodological:
		return true
	}
	return false
}
