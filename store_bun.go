package portal

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// clientState is the key/value layout backing client-local durable storage.
type clientState struct {
	bun.BaseModel `bun:"table:client_state,alias:cs"`
	Key           string     `bun:"key,pk" json:"key"`
	Value         string     `bun:"value,notnull" json:"value,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// BunStore is the durable SessionStore, persisting client state in a local
// SQLite database through Bun.
type BunStore struct {
	db     *bun.DB
	logger Logger
}

var _ SessionStore = (*BunStore)(nil)

// OpenBunStore opens (or creates) the state database at path and prepares
// the schema. Use ":memory:" for a throwaway store.
func OpenBunStore(ctx context.Context, path string) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, ErrStorage.Category, "unable to open state database").
			WithTextCode(ErrStorage.TextCode)
	}

	store := NewBunStore(bun.NewDB(sqldb, sqlitedialect.New()))
	if err := store.init(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// NewBunStore wraps an existing Bun handle. Callers owning the handle must
// run init through OpenBunStore or ensure the client_state table exists.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{
		db:     db,
		logger: defLogger{},
	}
}

func (b *BunStore) WithLogger(logger Logger) *BunStore {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// DB exposes the underlying handle so embedders can close it on teardown.
func (b *BunStore) DB() *bun.DB {
	return b.db
}

func (b *BunStore) init(ctx context.Context) error {
	if _, err := b.db.NewCreateTable().
		Model((*clientState)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, ErrStorage.Category, "unable to prepare state table").
			WithTextCode(ErrStorage.TextCode)
	}

	version := &clientState{
		Key:   storeKeySchemaVersion,
		Value: strconv.Itoa(StoreSchemaVersion),
	}
	if _, err := b.db.NewInsert().
		Model(version).
		On("CONFLICT (key) DO NOTHING").
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, ErrStorage.Category, "unable to seed schema version").
			WithTextCode(ErrStorage.TextCode)
	}

	return nil
}

// Save writes the session and token entries, replacing any prior values.
// Both entries move together so the transport fast path never observes a
// token from a different session.
func (b *BunStore) Save(ctx context.Context, session *Session) error {
	payload, err := encodeSession(session)
	if err != nil {
		return err
	}

	err = b.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for key, value := range map[string]string{
			storeKeySession: payload,
			storeKeyToken:   session.Token,
		} {
			row := &clientState{Key: key, Value: value}
			if _, err := tx.NewInsert().
				Model(row).
				On("CONFLICT (key) DO UPDATE").
				Set("value = EXCLUDED.value").
				Set("updated_at = current_timestamp").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return goerrors.Wrap(err, ErrStorage.Category, "unable to persist session").
			WithTextCode(ErrStorage.TextCode)
	}

	return nil
}

func (b *BunStore) Load(ctx context.Context) (*Session, error) {
	version, err := b.value(ctx, storeKeySchemaVersion)
	if err != nil {
		return nil, err
	}
	if !schemaReadable(version) {
		b.logger.Warn("persisted state schema %q is newer than supported, treating as absent", version)
		return nil, nil
	}

	raw, err := b.value(ctx, storeKeySession)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	session := decodeSession(raw)
	if session == nil {
		b.logger.Warn("persisted session record did not parse, treating as absent")
	}
	return session, nil
}

func (b *BunStore) Token(ctx context.Context) (string, error) {
	return b.value(ctx, storeKeyToken)
}

// Clear removes the session and token entries. Clearing an empty store is
// not an error.
func (b *BunStore) Clear(ctx context.Context) error {
	if _, err := b.db.NewDelete().
		Model((*clientState)(nil)).
		Where("cs.key IN (?)", bun.In([]string{storeKeySession, storeKeyToken})).
		Exec(ctx); err != nil {
		return goerrors.Wrap(err, ErrStorage.Category, "unable to clear session state").
			WithTextCode(ErrStorage.TextCode)
	}
	return nil
}

func (b *BunStore) value(ctx context.Context, key string) (string, error) {
	row := &clientState{}
	err := b.db.NewSelect().
		Model(row).
		Where("cs.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", goerrors.Wrap(err, ErrStorage.Category, "unable to read session state").
			WithTextCode(ErrStorage.TextCode)
	}
	return row.Value, nil
}
