package core

// ColorName is one of the fixed palette names shared by categories and tags.
type ColorName string

// Palette is the fixed set of display colors. Tag colors are derived from this
// list by string hashing; category colors are picked at creation time.
var Palette = []ColorName{
	"rose", "pink", "fuchsia", "purple", "violet",
	"indigo", "blue", "sky", "cyan", "teal",
	"emerald", "green", "lime", "yellow", "amber",
	"orange", "red", "warmGray", "coolGray", "slate",
}

// Category groups notes and parameterizes their AI enrichment.
// NoEnrichment marks a privacy-preserving manual category: content of its notes
// must never be sent to the enrichment endpoint.
type Category struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Color            ColorName `json:"color"`
	EnrichmentPrompt string    `json:"enrichmentPrompt"`
	NoEnrichment     bool      `json:"noEnrichment,omitempty"`
}
