package portal

import (
	"encoding/json"
	"fmt"
	"strconv"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Session is the canonical client-held record of the authenticated
// principal. It is produced exclusively by the normalization boundary in
// this file; backend shape quirks never leak past it.
type Session struct {
	PrincipalID        string `json:"principal_id"`
	DisplayName        string `json:"display_name,omitempty"`
	Email              string `json:"email,omitempty"`
	Role               Role   `json:"role"`
	Token              string `json:"token"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

// PrincipalUUID parses the principal identifier as a UUID.
func (s *Session) PrincipalUUID() (uuid.UUID, error) {
	return uuid.Parse(s.PrincipalID)
}

// HasRole checks the session role against raw, case-insensitively.
func (s *Session) HasRole(raw string) bool {
	return NormalizeRole(string(s.Role)) == NormalizeRole(raw)
}

// Clone returns a copy of the session. Consumers receive clones so no reader
// can observe an in-place mutation.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// The bearer token is a secret and never appears in logs.
func (s Session) String() string {
	return fmt.Sprintf(
		"principal=%s role=%s must_change_password=%t token=<redacted>",
		s.PrincipalID,
		s.Role,
		s.MustChangePassword,
	)
}

// flexBool tolerates the backend serializing booleans as native booleans or
// as boolean-valued strings ("true"/"false"). Observed inconsistency in the
// upstream API, normalized here and nowhere else.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var native bool
	if err := json.Unmarshal(data, &native); err == nil {
		*b = flexBool(native)
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		parsed, err := strconv.ParseBool(text)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "boolean flag has non-boolean string value")
		}
		*b = flexBool(parsed)
		return nil
	}

	return goerrors.New("boolean flag has unsupported JSON type", goerrors.CategoryBadInput).
		WithMetadata(map[string]any{"raw": string(data)})
}

// principalPayload covers the field aliases the backend uses for the same
// principal attributes across endpoints.
type principalPayload struct {
	PrincipalID string   `json:"principalId"`
	UserID      string   `json:"userId"`
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	MustChange  flexBool `json:"mustChangePassword"`
	FirstLogin  flexBool `json:"isFirstLogin"`
}

func (p principalPayload) principalID() string {
	if p.PrincipalID != "" {
		return p.PrincipalID
	}
	if p.UserID != "" {
		return p.UserID
	}
	return p.ID
}

func (p principalPayload) mustChangePassword() bool {
	return bool(p.MustChange) || bool(p.FirstLogin)
}

// loginPayload is the login response envelope. The principal arrives either
// flat next to the token or nested under "user", depending on the backend
// deployment.
type loginPayload struct {
	principalPayload
	Token string            `json:"token"`
	User  *principalPayload `json:"user"`
}

// sessionFromLoginPayload maps every observed login response shape onto the
// canonical Session. It enforces the session invariants: a non-empty token
// and a recognized role. Violations are authentication failures.
func sessionFromLoginPayload(body []byte) (*Session, error) {
	var payload loginPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse login response")
	}

	principal := payload.principalPayload
	if payload.User != nil {
		principal = *payload.User
	}

	if payload.Token == "" {
		return nil, withMessage(ErrAuthenticationFailed, "login response carried no token")
	}

	role, ok := ParseRole(principal.Role)
	if !ok {
		return nil, ErrUnknownRole.Clone().WithMetadata(map[string]any{
			"role": principal.Role,
		})
	}

	return &Session{
		PrincipalID:        principal.principalID(),
		DisplayName:        principal.Name,
		Email:              principal.Email,
		Role:               role,
		Token:              payload.Token,
		MustChangePassword: principal.mustChangePassword(),
	}, nil
}
