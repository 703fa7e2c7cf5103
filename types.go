package portal

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionStore is the durable key-value persistence for the current session.
// Load returns (nil, nil) when no session is persisted or the persisted
// record does not parse; absence is not an error. Clear is idempotent.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context) (*Session, error)
	// Token is the transport fast path used to sign outgoing requests.
	// It returns "" when no token is persisted.
	Token(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] PORTAL "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] PORTAL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] PORTAL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] PORTAL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
