package spectra

import (
	"time"

	"github.com/goliatone/go-spectra/pkg/activity"
	"github.com/goliatone/go-spectra/pkg/preferences"
)

// Actor identifies who dispatches through a store. IDs are usually UUIDs.
type Actor struct {
	ActorID  string
	UserID   string
	TenantID string
}

// StoreOption configures a Store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	state     *State
	hooks     activity.Hooks
	activity  activity.Config
	logger    DispatchLogger
	resolver  *preferences.Resolver
	sessionID string
	actor     Actor
	now       func() time.Time
}

func applyStoreOptions(opts []StoreOption) storeConfig {
	cfg := storeConfig{
		activity: activity.Config{Enabled: true},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithInitialState starts the store at state instead of an empty one.
func WithInitialState(state *State) StoreOption {
	return func(cfg *storeConfig) {
		cfg.state = state
	}
}

// WithActivityHooks attaches the "on change" hooks. Hooks are cloned and nil
// entries dropped.
func WithActivityHooks(hooks activity.Hooks) StoreOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.hooks = normalized
	}
}

// WithActivityConfig controls the channel and scopes of emitted events.
func WithActivityConfig(config activity.Config) StoreOption {
	return func(cfg *storeConfig) {
		cfg.activity = config
	}
}

// WithDispatchLogger attaches a logger called after every dispatch.
func WithDispatchLogger(logger DispatchLogger) StoreOption {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithPreferences loads preferences through resolver when the store starts
// and saves them after every settings change.
func WithPreferences(resolver preferences.Resolver) StoreOption {
	return func(cfg *storeConfig) {
		cfg.resolver = &resolver
	}
}

// WithPreferencesStore is WithPreferences over a bare key-value store.
func WithPreferencesStore(kv preferences.KV) StoreOption {
	return WithPreferences(preferences.Resolver{KV: kv})
}

// WithSessionID names the session in emitted events.
func WithSessionID(id string) StoreOption {
	return func(cfg *storeConfig) {
		cfg.sessionID = id
	}
}

// WithActor sets the identities attached to emitted events.
func WithActor(actor Actor) StoreOption {
	return func(cfg *storeConfig) {
		cfg.actor = actor
	}
}

// WithClock overrides the clock used for event timestamps and durations.
func WithClock(now func() time.Time) StoreOption {
	return func(cfg *storeConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// ActivityHooks returns a copy of the hooks configured on the store.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.hooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
