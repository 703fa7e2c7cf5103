package portal

import (
	"context"
	"sync"

	"github.com/goliatone/go-print"
)

// SessionState is a session lifecycle state
type SessionState string

const (
	// StateInitializing is the startup state, before hydration from the
	// store has resolved. Gates suspend decisions while here.
	StateInitializing SessionState = "initializing"
	// StateAnonymous means no current session.
	StateAnonymous SessionState = "anonymous"
	// StateAuthenticated means a session is current and readable.
	StateAuthenticated SessionState = "authenticated"
)

// Snapshot is the immutable view handed to readers and subscribers. Session
// is a clone; mutating it does not affect the context.
type Snapshot struct {
	State   SessionState
	Session *Session
}

func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated
}

func (s Snapshot) IsLoading() bool {
	return s.State == StateInitializing
}

// Subscriber receives a snapshot after every state transition.
type Subscriber func(Snapshot)

// SessionContext is the process-wide observable of the current session. It
// is read by many concurrent consumers and mutated only by the lifecycle
// operations below; every mutation swaps the full payload under the write
// lock so no reader observes a half-updated session.
type SessionContext struct {
	mu          sync.RWMutex
	state       SessionState
	session     *Session
	store       SessionStore
	logger      Logger
	subMu       sync.Mutex
	subscribers map[int]Subscriber
	nextSubID   int
	transitions map[SessionState]map[SessionState]struct{}
}

func NewSessionContext(store SessionStore) *SessionContext {
	return &SessionContext{
		state:       StateInitializing,
		store:       store,
		logger:      defLogger{},
		subscribers: map[int]Subscriber{},
		transitions: map[SessionState]map[SessionState]struct{}{
			StateInitializing: {
				StateAnonymous:     {},
				StateAuthenticated: {},
			},
			StateAnonymous: {
				StateAnonymous:     {},
				StateAuthenticated: {},
			},
			StateAuthenticated: {
				StateAnonymous:     {},
				StateAuthenticated: {},
			},
		},
	}
}

func (sc *SessionContext) WithLogger(logger Logger) *SessionContext {
	if logger != nil {
		sc.logger = logger
	}
	return sc
}

// Start hydrates the context from the session store. A persisted session
// moves the context to authenticated; absence, corruption, or a storage
// failure lands in anonymous (clearing whatever was persisted), mirroring a
// fresh visit.
func (sc *SessionContext) Start(ctx context.Context) error {
	session, err := sc.store.Load(ctx)
	if err != nil {
		sc.logger.Warn("session hydration failed, starting anonymous: %v", err)
		if clearErr := sc.store.Clear(ctx); clearErr != nil {
			sc.logger.Error("unable to clear unreadable session state: %v", clearErr)
		}
		return sc.transition(StateAnonymous, nil)
	}

	if session == nil {
		return sc.transition(StateAnonymous, nil)
	}

	sc.logger.Debug("hydrated session %s", session)
	return sc.transition(StateAuthenticated, session)
}

// Current returns the state and a clone of the session, if any.
func (sc *SessionContext) Current() Snapshot {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return Snapshot{State: sc.state, Session: sc.session.Clone()}
}

func (sc *SessionContext) IsAuthenticated() bool {
	return sc.Current().IsAuthenticated()
}

func (sc *SessionContext) IsLoading() bool {
	return sc.Current().IsLoading()
}

// SetAuthenticated installs the session produced by a successful login. The
// session is already persisted by the Auth Client; subscribers are notified
// before this returns, so a navigation decision made after a login call
// always sees the new session (write-then-navigate).
func (sc *SessionContext) SetAuthenticated(session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"reason": "authenticated state requires a session with a token",
		})
	}
	return sc.transition(StateAuthenticated, session.Clone())
}

// Logout clears the persisted session and moves to anonymous. Logging out
// while anonymous is a no-op, not an error.
func (sc *SessionContext) Logout(ctx context.Context) error {
	if err := sc.store.Clear(ctx); err != nil {
		return err
	}
	return sc.transition(StateAnonymous, nil)
}

// ApplyProfile merges updated profile fields into the current session,
// re-persists it, and swaps the payload atomically. The context stays
// authenticated.
func (sc *SessionContext) ApplyProfile(ctx context.Context, principal *Principal) error {
	return sc.replaceSession(ctx, func(session *Session) {
		if principal.Name != "" {
			session.DisplayName = principal.Name
		}
		if principal.Email != "" {
			session.Email = principal.Email
		}
	})
}

// ClearMustChangePassword releases the first-login gate after a successful
// password change.
func (sc *SessionContext) ClearMustChangePassword(ctx context.Context) error {
	return sc.replaceSession(ctx, func(session *Session) {
		session.MustChangePassword = false
	})
}

// HandleAuthError consumes a session-expiry error: clear the store, drop to
// anonymous, notify subscribers. Returns true when err was the expiry signal
// and was handled; every screen reacts to expiry this same way.
func (sc *SessionContext) HandleAuthError(ctx context.Context, err error) bool {
	if !IsSessionExpired(err) {
		return false
	}

	sc.logger.Info("session expired, clearing local state")
	if clearErr := sc.store.Clear(ctx); clearErr != nil {
		sc.logger.Error("unable to clear expired session: %v", clearErr)
	}
	if trErr := sc.transition(StateAnonymous, nil); trErr != nil {
		sc.logger.Error("unable to transition after expiry: %v", trErr)
	}
	return true
}

// Subscribe registers fn for transition notifications and returns its
// unsubscribe function.
func (sc *SessionContext) Subscribe(fn Subscriber) func() {
	sc.subMu.Lock()
	defer sc.subMu.Unlock()

	id := sc.nextSubID
	sc.nextSubID++
	sc.subscribers[id] = fn

	return func() {
		sc.subMu.Lock()
		defer sc.subMu.Unlock()
		delete(sc.subscribers, id)
	}
}

func (sc *SessionContext) replaceSession(ctx context.Context, mutate func(*Session)) error {
	sc.mu.RLock()
	current := sc.session.Clone()
	state := sc.state
	sc.mu.RUnlock()

	if state != StateAuthenticated || current == nil {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from":   state,
			"reason": "no authenticated session to update",
		})
	}

	mutate(current)

	if err := sc.store.Save(ctx, current); err != nil {
		return err
	}
	return sc.transition(StateAuthenticated, current)
}

func (sc *SessionContext) transition(target SessionState, session *Session) error {
	sc.mu.Lock()
	from := sc.state

	if !sc.canTransition(from, target) {
		sc.mu.Unlock()
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	sc.state = target
	sc.session = session
	snapshot := Snapshot{State: target, Session: session.Clone()}
	sc.mu.Unlock()

	sc.logger.Debug("session transition %s", print.MaybePrettyJSON(map[string]any{
		"from": from,
		"to":   target,
	}))
	sc.notify(snapshot)
	return nil
}

func (sc *SessionContext) canTransition(from, to SessionState) bool {
	if allowed, ok := sc.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (sc *SessionContext) notify(snapshot Snapshot) {
	sc.subMu.Lock()
	subs := make([]Subscriber, 0, len(sc.subscribers))
	for _, fn := range sc.subscribers {
		subs = append(subs, fn)
	}
	sc.subMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}
