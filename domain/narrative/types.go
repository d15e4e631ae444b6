package narrative

// Category classifies a narrative segment
type Category string

const (
	SectionDriver     Category = "driver"
	SectionReactive   Category = "reactive"
	SectionConfounder Category = "confounder"
	SectionFollowUp   Category = "follow_up"
)

// Section is one structured span extracted from the free-text interpretation.
// Extraction is best-effort: sections may be absent for any category.
type Section struct {
	Category   Category `json:"category"`
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
}
