package domain

// KnowledgeLevel is how firmly a relationship's existence is established.
type KnowledgeLevel string

const (
	KnowledgeUnknown   KnowledgeLevel = "unknown"
	KnowledgeSuspected KnowledgeLevel = "suspected"
	KnowledgeKnown     KnowledgeLevel = "known"
)

var knowledgeRanks = map[KnowledgeLevel]int{
	KnowledgeUnknown:   0,
	KnowledgeSuspected: 1,
	KnowledgeKnown:     2,
}

func ValidKnowledgeLevel(l string) bool {
	_, ok := knowledgeRanks[KnowledgeLevel(l)]
	return ok
}

func (l KnowledgeLevel) Rank() int {
	return knowledgeRanks[l]
}

// evidenceConfidence is the confidence implied by n distinct pieces of
// evidence: ten or more is full confidence.
func evidenceConfidence(n int) float64 {
	return clampUnit(float64(n) / 10.0)
}
