package rotation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/jo-hoe/gowall/internal/database"
	"github.com/jo-hoe/gowall/internal/render"
)

// State of the rotation engine.
type State int

const (
	// StateEmpty means no selected images are known.
	StateEmpty State = iota
	// StateLoading means a reload is in flight or has not yet produced a
	// displayable image.
	StateLoading
	// StateLoaded means the cursor is valid and its image is decoded.
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Config struct {
	Database database.DatabaseService
	Loader   *Loader
	Renderer *render.Renderer
	Surface  render.Surface
}

// Engine cycles the display surface through the selected subset of generated
// images. It is purely reactive: advancing happens once per trigger tick, and
// the selection snapshot is only refreshed on explicit (re)activation.
type Engine struct {
	db       database.DatabaseService
	loader   *Loader
	renderer *render.Renderer
	surface  render.Surface

	mu      sync.Mutex
	state   State
	images  []*database.Image
	index   int // -1 means nothing loaded yet
	current image.Image

	cancel      context.CancelFunc
	unsubscribe func()
	done        chan struct{}
}

func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errors.New("missing Database parameter")
	}
	if cfg.Loader == nil {
		return nil, errors.New("missing Loader parameter")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("missing Renderer parameter")
	}
	if cfg.Surface == nil {
		return nil, errors.New("missing Surface parameter")
	}

	return &Engine{
		db:       cfg.Database,
		loader:   cfg.Loader,
		renderer: cfg.Renderer,
		surface:  cfg.Surface,
		state:    StateEmpty,
		index:    -1,
	}, nil
}

// Activate snapshots the selected image set ordered by ascending id and loads
// the first entry. The snapshot is not refreshed when the store changes; a
// new Activate call is required for that.
func (e *Engine) Activate(ctx context.Context) error {
	e.mu.Lock()
	e.state = StateLoading
	e.index = -1
	e.current = nil
	e.mu.Unlock()

	images, err := e.db.GetSelectedImages(ctx)
	if err != nil {
		// Keep the loading state; a later activation may succeed.
		return fmt.Errorf("failed to load selected images: %w", err)
	}

	if len(images) == 0 {
		e.mu.Lock()
		e.state = StateEmpty
		e.images = nil
		e.mu.Unlock()
		slog.Info("rotation activated with no selected images")
		return nil
	}

	first, err := e.loader.Load(ctx, images[0])
	if err != nil {
		// Snapshot is kept so a trigger-driven retry is possible once the
		// engine is re-activated; the display shows the loading placeholder.
		e.mu.Lock()
		e.images = images
		e.mu.Unlock()
		return fmt.Errorf("failed to load initial rotation image: %w", err)
	}

	e.mu.Lock()
	e.images = images
	e.index = 0
	e.current = first
	e.state = StateLoaded
	e.mu.Unlock()

	slog.Info("rotation activated", "selected_count", len(images), "current_id", images[0].ID)
	return nil
}

// Advance moves the cursor to the next selected image. The new cursor and its
// decoded image are committed together; on decode failure the engine keeps
// its previous, still-valid display state and reports the failure.
func (e *Engine) Advance(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateLoaded || len(e.images) == 0 {
		slog.Debug("rotation advance skipped", "state", e.state.String())
		return nil
	}

	next := (e.index + 1) % len(e.images)

	loaded, err := e.loader.Load(ctx, e.images[next])
	if err != nil {
		slog.Error("rotation advance failed, keeping current image",
			"next_index", next, "next_id", e.images[next].ID, "error", err)
		return fmt.Errorf("failed to advance rotation: %w", err)
	}

	e.index = next
	e.current = loaded

	slog.Debug("rotation advanced", "index", e.index, "id", e.images[e.index].ID)
	return e.presentLocked()
}

// Render draws the current frame. It is idempotent and never changes engine
// state, so it is safe to call whenever the display becomes visible again.
func (e *Engine) Render(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.presentLocked()
}

func (e *Engine) presentLocked() error {
	frame, err := e.frameLocked()
	if err != nil {
		return err
	}
	if err := e.surface.Present(frame); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}
	return nil
}

func (e *Engine) frameLocked() (image.Image, error) {
	if e.state == StateLoaded && e.current != nil {
		return e.renderer.Frame(e.current), nil
	}

	kind := render.PlaceholderLoading
	if e.state == StateEmpty {
		kind = render.PlaceholderNoImages
	}
	frame, err := e.renderer.PlaceholderFrame(kind)
	if err != nil {
		return nil, err
	}
	return frame, nil
}

// CurrentFrame composes the frame that Render would present.
func (e *Engine) CurrentFrame() (image.Image, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameLocked()
}

// PresentFirstSelected renders the first selected image once, without
// touching the rotation cursor or snapshot.
func (e *Engine) PresentFirstSelected(ctx context.Context) error {
	record, err := e.db.GetFirstSelectedImage(ctx)
	if err != nil {
		return fmt.Errorf("no image to apply: %w", err)
	}

	img, err := e.loader.Load(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to load image %d: %w", record.ID, err)
	}

	if err := e.surface.Present(e.renderer.Frame(img)); err != nil {
		return fmt.Errorf("failed to present frame: %w", err)
	}
	return nil
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentIndex returns the rotation cursor, -1 when nothing is loaded.
func (e *Engine) CurrentIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index
}

// CurrentImageID returns the id of the image under the cursor.
func (e *Engine) CurrentImageID() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.index < 0 || e.index >= len(e.images) {
		return 0, false
	}
	return e.images[e.index].ID, true
}

// Start activates the engine, renders the initial frame, and subscribes to
// the trigger; each tick advances the rotation once. Failures per tick are
// logged and never stop the loop.
func (e *Engine) Start(ctx context.Context, trigger Trigger) error {
	if err := e.Activate(ctx); err != nil {
		slog.Error("rotation activation failed", "error", err)
	}
	if err := e.Render(ctx); err != nil {
		slog.Error("initial render failed", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	ticks, unsubscribe := trigger.Subscribe()

	e.mu.Lock()
	e.cancel = cancel
	e.unsubscribe = unsubscribe
	e.done = make(chan struct{})
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticks:
				if err := e.Advance(runCtx); err != nil {
					slog.Error("rotation tick failed", "error", err)
				}
			}
		}
	}()

	return nil
}

// Stop unsubscribes from the trigger and waits for the tick loop to exit.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	unsubscribe := e.unsubscribe
	done := e.done
	e.cancel = nil
	e.unsubscribe = nil
	e.done = nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
