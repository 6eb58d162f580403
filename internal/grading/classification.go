package grading

import "strings"

// Classification is the topic-adherence verdict returned by the assessor.
type Classification string

const (
	// OnTopic means the essay addresses the specific angle of the theme.
	OnTopic Classification = "on_topic"
	// Tangent means the essay covers the general subject but ignores the specific angle.
	Tangent Classification = "tangent"
	// OffTopic means the essay is about an entirely different subject.
	OffTopic Classification = "off_topic"
)

var classificationAliases = map[string]Classification{
	"OK":             OnTopic,
	"ON_TOPIC":       OnTopic,
	"ONTOPIC":        OnTopic,
	"ADEQUADO":       OnTopic,
	"TANGENTE":       Tangent,
	"TANGENT":        Tangent,
	"TANGENCIAMENTO": Tangent,
	"FUGA":           OffTopic,
	"FUGA_AO_TEMA":   OffTopic,
	"OFF_TOPIC":      OffTopic,
	"OFFTOPIC":       OffTopic,
}

// ParseClassification maps the assessor's label (Portuguese or English) to a Classification.
// The boolean is false when the label is empty or unknown.
func ParseClassification(raw string) (Classification, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if key == "" {
		return "", false
	}
	value, ok := classificationAliases[key]
	return value, ok
}

// Label returns the wire label stored in the evaluation detail document.
func (c Classification) Label() string {
	switch c {
	case OffTopic:
		return "FUGA"
	case Tangent:
		return "TANGENTE"
	default:
		return "OK"
	}
}
