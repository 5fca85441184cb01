package spectra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-spectra/pkg/activity"
)

// ErrNilEngine is returned by NewStore without an engine.
var ErrNilEngine = errors.New("spectra: nil engine")

// Store serializes dispatches against one session and performs the side
// effects the reducer leaves out: saving preferences and notifying hooks.
type Store struct {
	mu      sync.Mutex
	engine  *Engine
	session Session
	emitter *activity.Emitter
	logger  DispatchLogger
	cfg     storeConfig
}

// NewStore starts a session. When preferences are configured they are
// loaded first; a failing key-value store leaves the defaults in place and
// is reported as the returned error next to a usable store.
func NewStore(ctx context.Context, engine *Engine, opts ...StoreOption) (*Store, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	cfg := applyStoreOptions(opts)
	state := cfg.state
	if state == nil {
		state = NewState()
	}

	var loadErr error
	if cfg.resolver != nil {
		prefs, err := cfg.resolver.Load(ctx)
		loadErr = err
		seeded := *state
		seeded.Preferences = prefs
		state = &seeded
	}

	s := &Store{
		engine:  engine,
		session: engine.NewSession(state),
		emitter: activity.NewEmitter(cfg.hooks, cfg.activity),
		logger:  dispatchLoggerOrNoop(cfg.logger),
		cfg:     cfg,
	}
	if loadErr != nil {
		s.logger.LogDispatch(DispatchLogEvent{Kind: KindInitial, Scope: ScopeSettings, Err: loadErr})
	}
	return s, loadErr
}

// State returns the current snapshot.
func (s *Store) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.State
}

// Session returns the current session value, history included.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// HasUndo reports whether an Undo dispatch would restore an earlier snapshot.
func (s *Store) HasUndo() bool {
	return s.Session().HasUndo()
}

// HasRedo reports whether a Redo dispatch would restore a later snapshot.
func (s *Store) HasRedo() bool {
	return s.Session().HasRedo()
}

// Dispatch reduces action and runs the side effects of the resulting change.
// The returned state is always the current one; the error reports failed
// side effects only, the transition itself never fails.
func (s *Store) Dispatch(ctx context.Context, action Action) (*State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.cfg.now()
	prev := s.session
	next, recorded := s.engine.dispatch(prev, action)
	s.session = next

	event := DispatchLogEvent{
		Changed:      next.State != prev.State,
		Recorded:     recorded,
		HistoryLen:   next.History.Len(),
		HistoryIndex: next.History.Cursor(),
	}
	if action != nil {
		event.Kind = action.Kind()
	}
	if !event.Changed {
		event.Scope = event.Kind.Scope()
		event.Duration = s.cfg.now().Sub(start)
		s.logger.LogDispatch(event)
		return next.State, nil
	}

	state := next.State
	event.Kind = state.ActionKind
	event.Scope = state.ActionKind.Scope()
	event.Condition = state.Condition

	var errs []error
	if event.Scope == ScopeSettings && s.cfg.resolver != nil {
		if err := s.cfg.resolver.Save(ctx, state.Preferences); err != nil {
			errs = append(errs, err)
		} else if err := s.emitter.Emit(ctx, activity.BuildPreferencesSavedEvent(s.changeInput(state, nil, start), state.Preferences.Workspace)); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.emitter.Emit(ctx, activity.BuildChangeEvent(s.changeInput(state, changedSpectra(prev.State, state), start))); err != nil {
		errs = append(errs, err)
	}

	event.Err = errors.Join(errs...)
	event.Duration = s.cfg.now().Sub(start)
	s.logger.LogDispatch(event)
	return state, event.Err
}

// DispatchAll dispatches actions in order and stops at the first side
// effect error.
func (s *Store) DispatchAll(ctx context.Context, actions ...Action) (*State, error) {
	state := s.State()
	for _, action := range actions {
		var err error
		if state, err = s.Dispatch(ctx, action); err != nil {
			return state, err
		}
	}
	return state, nil
}

func (s *Store) changeInput(state *State, spectra []string, at time.Time) activity.ChangeInput {
	input := activity.ChangeInput{
		ActorID:    s.cfg.actor.ActorID,
		UserID:     s.cfg.actor.UserID,
		TenantID:   s.cfg.actor.TenantID,
		SessionID:  s.cfg.sessionID,
		Kind:       string(state.ActionKind),
		Scope:      string(state.ActionKind.Scope()),
		Spectra:    spectra,
		OccurredAt: at,
	}
	if state.Condition != nil {
		input.Condition = string(state.Condition.Kind)
	}
	return input
}

// changedSpectra lists the ids of spectra added, replaced or removed between
// two states, in order of appearance.
func changedSpectra(prev, next *State) []string {
	before := make(map[string]*Spectrum, len(prev.Spectra))
	for _, sp := range prev.Spectra {
		before[sp.ID] = sp
	}
	var ids []string
	for _, sp := range next.Spectra {
		if old, ok := before[sp.ID]; !ok || old != sp {
			ids = append(ids, sp.ID)
		}
		delete(before, sp.ID)
	}
	for _, sp := range prev.Spectra {
		if _, removed := before[sp.ID]; removed {
			ids = append(ids, sp.ID)
		}
	}
	return ids
}
