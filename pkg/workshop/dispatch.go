package workshop

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/stateful/workshop/internal/ulid"
)

// Generator is the rewrite service. It receives a formatted prompt and
// returns the replacement content for the block.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type State int

const (
	StateIdle State = iota
	StateSelecting
	StateAwaitingCustomPrompt
	StateInvoking
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateAwaitingCustomPrompt:
		return "awaiting-custom-prompt"
	case StateInvoking:
		return "invoking"
	default:
		return "unknown"
	}
}

var (
	ErrBusy              = errors.New("block has a rewrite in flight")
	ErrInvalidTransition = errors.New("invalid action menu transition")
)

// Dispatcher runs rewrite actions against blocks of a session. Each
// block has its own menu state; blocks without an entry are idle.
type Dispatcher struct {
	session   *Session
	generator Generator
	logger    *zap.Logger

	mu     sync.Mutex
	states map[string]State
}

func NewDispatcher(session *Session, generator Generator, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		session:   session,
		generator: generator,
		logger:    logger.With(zap.String("session", session.ID())),
		states:    make(map[string]State),
	}
}

func (d *Dispatcher) State(blockID string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[blockID]
}

// Busy returns ids of blocks with a rewrite in flight.
func (d *Dispatcher) Busy() map[string]bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := make(map[string]bool)
	for id, state := range d.states {
		if state == StateInvoking {
			result[id] = true
		}
	}
	return result
}

// Open shows the action menu for a block.
func (d *Dispatcher) Open(blockID string) error {
	return d.transition(blockID, StateSelecting, StateIdle, StateSelecting)
}

// Close hides the action menu without invoking anything.
func (d *Dispatcher) Close(blockID string) error {
	return d.transition(blockID, StateIdle, StateIdle, StateSelecting, StateAwaitingCustomPrompt)
}

// Back leaves the custom instruction form and returns to the menu.
func (d *Dispatcher) Back(blockID string) error {
	return d.transition(blockID, StateSelecting, StateAwaitingCustomPrompt)
}

// Choose picks an action from the open menu. ActionOther moves to the
// custom instruction form and reports false; named actions run the
// rewrite and report whether its result was applied.
func (d *Dispatcher) Choose(ctx context.Context, blockID string, action Action) (bool, error) {
	if _, ok := action.info(); !ok {
		return false, errors.Wrapf(ErrUnknownAction, "%q", string(action))
	}
	if action.IsCustom() {
		return false, d.transition(blockID, StateAwaitingCustomPrompt, StateSelecting)
	}
	return d.invoke(ctx, blockID, action, "", StateSelecting)
}

// Submit sends the custom instruction typed into the form. A blank
// instruction is rejected and the form stays open.
func (d *Dispatcher) Submit(ctx context.Context, blockID, instruction string) (bool, error) {
	return d.invoke(ctx, blockID, ActionOther, instruction, StateAwaitingCustomPrompt)
}

// Dispatch runs an action against a block regardless of menu state,
// unless a rewrite is already in flight for it. It blocks until the
// rewrite service answers. Unknown block ids are ignored without
// calling the service.
func (d *Dispatcher) Dispatch(ctx context.Context, blockID string, action Action, custom string) (bool, error) {
	return d.invoke(ctx, blockID, action, custom, StateIdle, StateSelecting, StateAwaitingCustomPrompt)
}

func (d *Dispatcher) invoke(ctx context.Context, blockID string, action Action, custom string, from ...State) (bool, error) {
	if _, err := action.Instruction(custom); err != nil {
		return false, err
	}

	if err := d.transition(blockID, StateInvoking, from...); err != nil {
		return false, err
	}
	defer d.finish(blockID)

	block, ok := d.session.Lookup(blockID)
	if !ok {
		d.logger.Debug("dispatch target not found", zap.String("block", blockID))
		return false, nil
	}

	prompt, err := BuildPrompt(action, custom, block.Content)
	if err != nil {
		return false, err
	}

	logger := d.logger.With(
		zap.String("invocation", ulid.GenerateID()),
		zap.String("block", blockID),
		zap.String("action", string(action)),
	)
	logger.Debug("invoking rewrite", zap.Int("prompt_size", len(prompt)))

	result, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("rewrite failed", zap.Error(err))
		return false, errors.Wrap(err, "rewrite failed")
	}

	applied, err := d.session.applyRewrite(blockID, block.Content, result)
	if err != nil {
		logger.Debug("rewrite result discarded", zap.Error(err))
		return false, err
	}
	logger.Debug("rewrite finished", zap.Bool("applied", applied))
	return applied, nil
}

func (d *Dispatcher) finish(blockID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.states, blockID)
}

func (d *Dispatcher) transition(blockID string, to State, from ...State) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.states[blockID]
	if current == StateInvoking {
		return ErrBusy
	}
	for _, state := range from {
		if current == state {
			if to == StateIdle {
				delete(d.states, blockID)
			} else {
				d.states[blockID] = to
			}
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidTransition, "%s to %s", current, to)
}
