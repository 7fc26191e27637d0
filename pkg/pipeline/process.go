package pipeline

import (
	"context"
	"log/slog"

	"github.com/aretw0/opennote/pkg/ai"
	"github.com/aretw0/opennote/pkg/core"
)

// Caller is the subset of Client the processor needs. Satisfied by *Client;
// tests use stubs.
type Caller interface {
	Categorize(ctx context.Context, req ai.CategorizeRequest) (ai.CategorizeResult, error)
	Enrich(ctx context.Context, req ai.EnrichRequest) (ai.EnrichResult, error)
}

// Options carries the settings snapshot a processing run works against.
type Options struct {
	Categories              []core.Category
	GenericEnrichmentPrompt string
}

// Update is the outcome of one processing run. Nil fields mean "unchanged".
type Update struct {
	Category         *string
	Tags             *core.TagSet
	EnrichmentBlocks *[]core.Block
}

// Empty reports whether the run produced no changes.
func (u Update) Empty() bool {
	return u.Category == nil && u.Tags == nil && u.EnrichmentBlocks == nil
}

// Apply folds the update into n.
func (u Update) Apply(n *core.Note) {
	if u.Category != nil {
		n.Category = *u.Category
	}
	if u.Tags != nil {
		n.Tags = u.Tags.Clone()
	}
	if u.EnrichmentBlocks != nil {
		n.EnrichmentBlocks = append([]core.Block{}, (*u.EnrichmentBlocks)...)
	}
}

// Processor runs the categorize-then-enrich pipeline for one note at a time.
type Processor struct {
	caller Caller
	logger *slog.Logger
}

// NewProcessor returns a Processor calling the server through caller.
func NewProcessor(caller Caller, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{caller: caller, logger: logger}
}

// ProcessNote categorizes the note and enriches it when its category allows.
//
// Categorization failures abort the run with nothing committed. Enrichment is
// best effort: failures are logged and the categorization outcome still
// returned. The note itself is not modified; the caller applies the Update.
func (p *Processor) ProcessNote(ctx context.Context, note core.Note, contentMarkdown string, opts Options) (Update, error) {
	var update Update

	refs := make([]ai.CategoryRef, 0, len(opts.Categories))
	for _, c := range opts.Categories {
		refs = append(refs, ai.CategoryRef{ID: c.ID, Name: c.Name})
	}

	result, err := p.caller.Categorize(ctx, ai.CategorizeRequest{
		NoteID:     string(note.ID),
		Title:      note.Title,
		Content:    contentMarkdown,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
		Categories: refs,
	})
	if err != nil {
		return Update{}, err
	}

	// System tags always track the latest run; user tags stay untouched.
	if len(result.Tags) > 0 {
		update.Tags = &core.TagSet{
			User:   append([]string{}, note.Tags.User...),
			System: append([]string{}, result.Tags...),
		}
	}

	// A category is only auto-assigned when the note has none, or its
	// current one no longer exists.
	if findCategory(opts.Categories, note.Category) == nil && len(result.Category) > 0 {
		update.Category = &result.Category[0]
	}

	p.enrich(ctx, note, contentMarkdown, opts, &update)
	return update, nil
}

func (p *Processor) enrich(ctx context.Context, note core.Note, contentMarkdown string, opts Options, update *Update) {
	assignedID := note.Category
	if update.Category != nil {
		assignedID = *update.Category
	}
	assigned := findCategory(opts.Categories, assignedID)

	// A NoEnrichment category auto-assigned in this same run means the user
	// never opted this note into enrichment. Skip without touching existing
	// enrichment blocks.
	if note.Category == "" && update.Category != nil {
		if auto := findCategory(opts.Categories, *update.Category); auto != nil && auto.NoEnrichment {
			p.logger.Debug("skipping enrichment for auto-assigned category", "note_id", note.ID, "category_id", auto.ID)
			return
		}
	}

	// A pre-existing NoEnrichment category clears enrichment without calling
	// the server.
	if assigned != nil && assigned.NoEnrichment {
		empty := []core.Block{}
		update.EnrichmentBlocks = &empty
		return
	}

	req := ai.EnrichRequest{
		NoteID:  string(note.ID),
		Title:   note.Title,
		Content: contentMarkdown,
	}
	if assigned != nil {
		req.CategoryID = assigned.ID
		req.EnrichmentPrompt = assigned.EnrichmentPrompt
	}
	if req.EnrichmentPrompt == "" {
		req.EnrichmentPrompt = opts.GenericEnrichmentPrompt
	}

	result, err := p.caller.Enrich(ctx, req)
	if err != nil {
		p.logger.Error("enrichment failed", "note_id", note.ID, "error", err)
		return
	}

	blocks := result.EnrichmentBlocks
	if blocks == nil {
		blocks = []core.Block{}
	}
	update.EnrichmentBlocks = &blocks
}

func findCategory(categories []core.Category, id string) *core.Category {
	if id == "" {
		return nil
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i]
		}
	}
	return nil
}
