package core

import "encoding/json"

// NoteID identifies a note. Permanent IDs are adapter-issued and lexically
// sortable by creation time; temporary IDs carry the "temp-" prefix until the
// adapter confirms creation.
type NoteID = string

// Timestamp is milliseconds since the Unix epoch (UTC).
type Timestamp = int64

// Embedding is a note-level semantic vector.
type Embedding = []float64

// Block is an opaque content unit. The store never interprets Content; it is
// authored by the editor (content blocks) or by the AI pipeline (enrichment
// blocks) and round-tripped as-is.
type Block struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Content   json.RawMessage `json:"content"`
	CreatedAt Timestamp       `json:"createdAt"`
}

// TagSet keeps user-applied and AI-inferred tags apart so the pipeline can
// refresh system tags without touching manual curation.
type TagSet struct {
	User   []string `json:"user"`
	System []string `json:"system"`
}

// Note is the central aggregate.
//
// ContentBlocks are user-authored and never mutated by the AI pipeline.
// EnrichmentBlocks are wholly owned by the pipeline and replaced wholesale.
// UpdatedAt is stamped by the store on every successful mutation, never by
// callers.
type Note struct {
	ID        NoteID    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`

	ContentBlocks    []Block `json:"contentBlocks"`
	EnrichmentBlocks []Block `json:"enrichmentBlocks"`

	Category   string      `json:"category,omitempty"`
	Tags       TagSet      `json:"tags"`
	Embeddings []Embedding `json:"embeddings,omitempty"`
}

// Clone returns a deep copy. Stores hand clones to updaters and keep clones as
// rollback snapshots, so no caller can alias store-owned state.
func (n Note) Clone() Note {
	out := n
	out.ContentBlocks = cloneBlocks(n.ContentBlocks)
	out.EnrichmentBlocks = cloneBlocks(n.EnrichmentBlocks)
	out.Tags = n.Tags.Clone()
	if n.Embeddings != nil {
		out.Embeddings = make([]Embedding, len(n.Embeddings))
		for i, e := range n.Embeddings {
			out.Embeddings[i] = append(Embedding(nil), e...)
		}
	}
	return out
}

// Clone returns a deep copy of the tag set. Nil slices become empty so the
// persisted shape is always {"user":[],"system":[]}.
func (t TagSet) Clone() TagSet {
	return TagSet{
		User:   append([]string{}, t.User...),
		System: append([]string{}, t.System...),
	}
}

// Contains reports whether tag appears in either the user or system set.
func (t TagSet) Contains(tag string) bool {
	for _, s := range t.User {
		if s == tag {
			return true
		}
	}
	for _, s := range t.System {
		if s == tag {
			return true
		}
	}
	return false
}

func cloneBlocks(blocks []Block) []Block {
	if blocks == nil {
		return []Block{}
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		out[i].Content = append(json.RawMessage(nil), b.Content...)
	}
	return out
}
