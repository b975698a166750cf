package pipeline

import "strconv"

// FallbackCategory labels identifiers of uncategorized chunks.
const FallbackCategory = "기타"

// IDAssigner mints <category>#<n> identifiers, counting from 1 per category.
// Each reload owns a fresh assigner.
type IDAssigner struct {
	counters map[string]int
}

func NewIDAssigner() *IDAssigner {
	return &IDAssigner{counters: make(map[string]int)}
}

func (a *IDAssigner) Next(category string) string {
	if category == "" {
		category = FallbackCategory
	}
	a.counters[category]++
	return category + "#" + strconv.Itoa(a.counters[category])
}
