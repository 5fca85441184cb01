package spectra

import (
	"github.com/goliatone/go-spectra/pkg/history"
)

// Session pairs the current state with its undo/redo log. Sessions are
// values; Dispatch returns a new Session and leaves its input untouched.
type Session struct {
	State   *State
	History history.Log[*State]
}

// NewSession starts a session at state (a fresh state when nil) using the
// engine's history ignore set and limit.
func (e *Engine) NewSession(state *State) Session {
	if state == nil {
		state = NewState()
	}
	opts := []history.Option{history.WithIgnore(e.cfg.historyIgnore)}
	if e.cfg.historyLimit > 0 {
		opts = append(opts, history.WithLimit(e.cfg.historyLimit))
	}
	return Session{
		State:   state,
		History: history.New(string(KindInitial), state, opts...),
	}
}

// HasUndo reports whether Undo would restore an earlier snapshot.
func (s Session) HasUndo() bool { return s.History.HasUndo() }

// HasRedo reports whether Redo would restore a later snapshot.
func (s Session) HasRedo() bool { return s.History.HasRedo() }

// Dispatch reduces action against the session state and records the result.
// Undo and Redo move the history cursor. A transition is recorded only when
// the state changed, the kind is not ignored and no condition declined it.
func (e *Engine) Dispatch(sess Session, action Action) Session {
	next, _ := e.dispatch(sess, action)
	return next
}

// dispatch is Dispatch that also reports whether the history changed: a
// recorded transition or a moved cursor.
func (e *Engine) dispatch(sess Session, action Action) (Session, bool) {
	if sess.State == nil {
		sess = e.NewSession(nil)
	}
	switch action.(type) {
	case Undo:
		log, entry, ok := sess.History.Undo()
		if !ok {
			return sess, false
		}
		return Session{State: restore(sess.State, entry.Snapshot, KindUndo), History: log}, true
	case Redo:
		log, entry, ok := sess.History.Redo()
		if !ok {
			return sess, false
		}
		return Session{State: restore(sess.State, entry.Snapshot, KindRedo), History: log}, true
	}

	next := e.Reduce(sess.State, action)
	if next == sess.State {
		return sess, false
	}
	kind := string(next.ActionKind)
	if next.Condition.Declined() || sess.History.Ignores(kind) {
		return Session{State: next, History: sess.History}, false
	}
	return Session{State: next, History: sess.History.Record(kind, next)}, true
}

// restore brings back the data of snapshot while keeping what history does
// not own: frame, preferences and the loading flag. The id sequence never
// moves backwards.
func restore(current, snapshot *State, kind Kind) *State {
	out := snapshot.next(kind)
	out.Frame = current.Frame
	out.Preferences = current.Preferences
	out.Loading = current.Loading
	out.FilterSnapshot = nil
	if current.Sequence > out.Sequence {
		out.Sequence = current.Sequence
	}
	out.deriveViews()
	return out
}
