package portal

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Logical keys in client-local durable storage.
const (
	storeKeySession       = "session"
	storeKeyToken         = "token"
	storeKeySchemaVersion = "schema_version"
)

// StoreSchemaVersion tags persisted state so future layouts can migrate
// instead of guessing. Records written by a newer layout are treated as
// absent rather than misread.
const StoreSchemaVersion = 1

// MemoryStore is an ephemeral SessionStore. It serializes sessions the same
// way the durable store does so round-trip behavior matches.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ SessionStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]string{
			storeKeySchemaVersion: strconv.Itoa(StoreSchemaVersion),
		},
	}
}

func (m *MemoryStore) Save(_ context.Context, session *Session) error {
	payload, err := encodeSession(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[storeKeySession] = payload
	m.entries[storeKeyToken] = session.Token
	return nil
}

func (m *MemoryStore) Load(_ context.Context) (*Session, error) {
	m.mu.RLock()
	raw, ok := m.entries[storeKeySession]
	version := m.entries[storeKeySchemaVersion]
	m.mu.RUnlock()

	if !ok || !schemaReadable(version) {
		return nil, nil
	}
	return decodeSession(raw), nil
}

func (m *MemoryStore) Token(_ context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[storeKeyToken], nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, storeKeySession)
	delete(m.entries, storeKeyToken)
	return nil
}

// encodeSession serializes a session for persistence, enforcing the
// invariant that a persisted session always carries a token.
func encodeSession(session *Session) (string, error) {
	if session == nil || session.Token == "" {
		return "", withMessage(ErrStorage, "refusing to persist a session without a token")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return "", goerrors.Wrap(err, ErrStorage.Category, ErrStorage.Message).
			WithTextCode(ErrStorage.TextCode)
	}
	return string(payload), nil
}

// decodeSession parses a persisted record. A corrupted record is "no
// session", never a crash.
func decodeSession(raw string) *Session {
	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil
	}
	if session.Token == "" {
		return nil
	}
	return &session
}

// schemaReadable reports whether persisted state was written by a layout
// this code understands.
func schemaReadable(version string) bool {
	if version == "" {
		// Pre-versioned records predate the schema row; still readable.
		return true
	}
	v, err := strconv.Atoi(version)
	if err != nil {
		return false
	}
	return v <= StoreSchemaVersion
}
