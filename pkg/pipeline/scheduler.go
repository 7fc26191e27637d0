package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/opennote/pkg/core"
	"github.com/aretw0/opennote/pkg/store"
)

// DefaultProcessingDelay is how long a note must stay unchanged before it is
// processed.
const DefaultProcessingDelay = 10 * time.Second

// Serializer renders a note's content blocks as markdown for the model.
// Block payloads are opaque to this package, so the caller supplies one.
type Serializer func(note core.Note) string

// SettingsSource yields the settings snapshot for a processing run.
type SettingsSource func(ctx context.Context) Options

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Notes     *store.Notes
	Processor *Processor
	Serialize Serializer
	Settings  SettingsSource
	Logger    *slog.Logger

	// Delay overrides DefaultProcessingDelay when positive.
	Delay time.Duration
}

// Scheduler watches the notes store and processes notes that stay unchanged
// for the configured delay. Edits within the window reset the note's timer;
// deletes cancel it.
type Scheduler struct {
	*worker.BaseWorker
	notes     *store.Notes
	processor *Processor
	serialize Serializer
	settings  SettingsSource
	logger    *slog.Logger
	delay     time.Duration

	mu      sync.Mutex
	pending map[core.NoteID]*time.Timer
	// applied marks notes whose next modify event is the scheduler's own
	// write-back, so processing output does not trigger another run.
	applied map[core.NoteID]bool
	cancel  context.CancelFunc
	runCtx  context.Context
	wg      sync.WaitGroup
}

// NewScheduler returns an unstarted Scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	delay := cfg.Delay
	if delay <= 0 {
		delay = DefaultProcessingDelay
	}
	return &Scheduler{
		BaseWorker: worker.NewBaseWorker("note-processor"),
		notes:      cfg.Notes,
		processor:  cfg.Processor,
		serialize:  cfg.Serialize,
		settings:   cfg.Settings,
		logger:     logger,
		delay:      delay,
		pending:    make(map[core.NoteID]*time.Timer),
		applied:    make(map[core.NoteID]bool),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := s.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("scheduler already started (status: %s)", status)
	}

	events, err := s.notes.Watch(ctx, "*")
	if err != nil {
		return fmt.Errorf("subscribing to note events: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.runCtx = runCtx

	s.SetStatus(worker.StatusRunning)
	return s.StartFunc(runCtx, func(ctx context.Context) error {
		return s.run(ctx, events)
	})
}

func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.StopRequested = true
		s.cancel()
	}
	return s.BaseWorker.Stop(ctx)
}

func (s *Scheduler) State() worker.State {
	return s.ExportState(func(st *worker.State) {
		st.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

func (s *Scheduler) run(ctx context.Context, events <-chan core.Event) error {
	defer s.drainTimers()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return nil

		case event, ok := <-events:
			if !ok {
				s.wg.Wait()
				return nil
			}
			id := core.NoteID(event.ID)
			switch event.Type {
			case core.EventCreate, core.EventModify:
				s.schedule(id)
			case core.EventDelete:
				s.cancelPending(id)
			}
		}
	}
}

// schedule (re)arms the debounce timer for id.
func (s *Scheduler) schedule(id core.NoteID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.applied[id] {
		delete(s.applied, id)
		return
	}

	if timer, ok := s.pending[id]; ok {
		timer.Stop()
	}
	s.pending[id] = time.AfterFunc(s.delay, func() {
		s.fire(id)
	})
}

// Flush processes id immediately, cancelling any pending timer. Used when
// the user asks for processing instead of waiting out the delay.
func (s *Scheduler) Flush(ctx context.Context, id core.NoteID) error {
	s.cancelPending(id)
	return s.process(ctx, id)
}

func (s *Scheduler) cancelPending(id core.NoteID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if timer, ok := s.pending[id]; ok {
		timer.Stop()
		delete(s.pending, id)
	}
}

func (s *Scheduler) drainTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.pending {
		timer.Stop()
		delete(s.pending, id)
	}
}

func (s *Scheduler) fire(id core.NoteID) {
	s.mu.Lock()
	delete(s.pending, id)
	ctx := s.runCtx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.process(ctx, id); err != nil {
		s.logger.Error("note processing failed", "note_id", id, "error", err)
	}
}

func (s *Scheduler) process(ctx context.Context, id core.NoteID) error {
	note, ok := s.notes.GetNote(id)
	if !ok {
		return nil
	}

	opts := s.settings(ctx)

	update, err := s.processor.ProcessNote(ctx, note, s.serialize(note), opts)
	if err != nil {
		return err
	}
	if update.Empty() {
		return nil
	}

	s.mu.Lock()
	s.applied[id] = true
	s.mu.Unlock()

	err = s.notes.UpdateNote(ctx, id, func(n core.Note) core.Note {
		update.Apply(&n)
		return n
	})
	if err != nil {
		s.mu.Lock()
		delete(s.applied, id)
		s.mu.Unlock()
	}
	return err
}
