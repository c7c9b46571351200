package speech

import "strings"

// Keyword tables for voice selection, evaluated in fixed priority order.
// Matching is case-insensitive substring search over the character label.
var (
	childMarkers  = []string{"child", "kid", "boy", "girl"}
	fatherMarkers = []string{"father", "dad", "爸爸"}
	motherMarkers = []string{"mother", "mom", "妈妈"}
)

// VoiceMap holds the synthesis voice identifiers for each speaker category.
type VoiceMap struct {
	Narrator string
	Child    string
	Male     string
	Female   string
}

// Select resolves a synthesis voice for a speaking character. The first
// matching rule wins; unmatched characters fall back to the narrator voice.
// The emotion label is accepted for forward compatibility but does not vary
// the selection yet.
func (m VoiceMap) Select(character, _ string) string {
	lower := strings.ToLower(character)

	switch {
	case containsAny(lower, childMarkers):
		return m.Child
	case containsAny(lower, fatherMarkers):
		return m.Male
	case containsAny(lower, motherMarkers):
		return m.Female
	default:
		return m.Narrator
	}
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}

	return false
}
