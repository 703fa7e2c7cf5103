package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Client translates portal operations into backend REST calls and
// normalizes every response into the canonical Session at this boundary.
// Calls are never retried automatically; cancellation and timeouts are the
// transport's business.
type Client struct {
	baseURL string
	http    *http.Client
	store   SessionStore
	logger  Logger
}

func NewClient(cfg *Config, store SessionStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		store:   store,
		logger:  defLogger{},
	}
}

func (c *Client) WithLogger(logger Logger) *Client {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.http = client
	}
	return c
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In("ADMIN", "INSTRUCTOR", "STUDENT"),
		),
	)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (r resetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (r resetConfirmRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (r changePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// RegistrationSummary is the backend's created-principal acknowledgement.
// Registration never authenticates the caller.
type RegistrationSummary struct {
	Message     string `json:"message"`
	PrincipalID string `json:"userId"`
	Email       string `json:"email"`
}

// Principal is the profile projection returned by principal updates.
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Login authenticates against the backend and persists the resulting
// session. On rejection it fails with the authentication error, carrying the
// backend's message when one is present.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := loginRequest{Email: email, Password: password}
	if err := payload.Validate(); err != nil {
		return nil, withMessage(ErrAuthenticationFailed, err.Error())
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/login", payload)
	if err != nil {
		return nil, requestFailure(ErrAuthenticationFailed, err)
	}
	if !successful(status) {
		c.logger.Info("login rejected for %s", email)
		return nil, withMessage(ErrAuthenticationFailed, backendMessage(body))
	}

	session, err := sessionFromLoginPayload(body)
	if err != nil {
		c.logger.Error("login response did not normalize: %v", err)
		return nil, err
	}

	if err := c.store.Save(ctx, session); err != nil {
		return nil, err
	}

	c.logger.Info("login succeeded: %s", session)
	return session, nil
}

// Register creates a new principal. Role defaults to STUDENT for
// self-service sign-up; the caller remains unauthenticated.
func (c *Client) Register(ctx context.Context, name, email, password string, role Role) (*RegistrationSummary, error) {
	if role == "" {
		role = RoleStudent
	}

	payload := registerRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     strings.ToUpper(string(NormalizeRole(string(role)))),
	}
	if err := payload.Validate(); err != nil {
		return nil, withMessage(ErrRegistrationFailed, err.Error())
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/register", payload)
	if err != nil {
		return nil, requestFailure(ErrRegistrationFailed, err)
	}
	if !successful(status) {
		return nil, withMessage(ErrRegistrationFailed, backendMessage(body))
	}

	summary := &RegistrationSummary{}
	if err := json.Unmarshal(body, summary); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse registration response")
	}

	c.logger.Info("registered principal %s", summary.PrincipalID)
	return summary, nil
}

// Logout clears the persisted session. It needs no network confirmation and
// always succeeds locally; backend-side token invalidation is best-effort.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.logger.Info("logged out")
	return nil
}

// RequestPasswordReset asks the backend to start a reset flow. The outcome
// reported to the caller never discloses whether the email is registered.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload := resetRequest{Email: email}
	if err := payload.Validate(); err != nil {
		return withMessage(ErrPasswordResetFailed, err.Error())
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/forgot-password", payload)
	if err != nil {
		return requestFailure(ErrPasswordResetFailed, err)
	}
	if !successful(status) {
		// Deliberately drop the backend message here: it can disclose
		// account existence.
		c.logger.Debug("password reset request rejected: %s", backendMessage(body))
		return ErrPasswordResetFailed
	}
	return nil
}

// ConfirmPasswordReset exchanges a reset token for a new password.
func (c *Client) ConfirmPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	payload := resetConfirmRequest{Token: resetToken, NewPassword: newPassword}
	if err := payload.Validate(); err != nil {
		return withMessage(ErrPasswordResetFailed, err.Error())
	}

	body, status, err := c.do(ctx, http.MethodPost, "/auth/reset-password", payload)
	if err != nil {
		return requestFailure(ErrPasswordResetFailed, err)
	}
	if !successful(status) {
		return withMessage(ErrPasswordResetFailed, backendMessage(body))
	}
	return nil
}

// ChangePassword changes the authenticated principal's password. Clearing
// the must-change-password flag in the current session is the caller's
// responsibility; see SessionContext.ClearMustChangePassword.
func (c *Client) ChangePassword(ctx context.Context, newPassword string) error {
	payload := changePasswordRequest{NewPassword: newPassword}
	if err := payload.Validate(); err != nil {
		return withMessage(ErrPasswordChangeFailed, err.Error())
	}

	body, status, err := c.do(ctx, http.MethodPut, "/users/change-password", payload)
	if err != nil {
		return requestFailure(ErrPasswordChangeFailed, err)
	}
	if !successful(status) {
		return withMessage(ErrPasswordChangeFailed, backendMessage(body))
	}
	return nil
}

// UpdateProfile applies partial profile fields to a principal and returns
// the backend's updated projection.
func (c *Client) UpdateProfile(ctx context.Context, principalID string, fields map[string]any) (*Principal, error) {
	if principalID == "" {
		return nil, goerrors.New("principal id is required", goerrors.CategoryBadInput)
	}

	body, status, err := c.do(ctx, http.MethodPut, "/users/"+principalID, fields)
	if err != nil {
		return nil, err
	}
	if !successful(status) {
		return nil, goerrors.New("unable to update profile", goerrors.CategoryOperation).
			WithMetadata(map[string]any{"message": backendMessage(body)})
	}

	var payload principalPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse profile response")
	}

	role, _ := ParseRole(payload.Role)
	return &Principal{
		ID:    payload.principalID(),
		Name:  payload.Name,
		Email: payload.Email,
		Role:  role,
	}, nil
}

// do executes one backend call. The bearer token is attached whenever the
// store holds one and omitted otherwise; an empty Authorization header is
// never sent. A 401 on a token-carrying call surfaces as the session-expiry
// error, the signal consumers feed to SessionContext.HandleAuthError.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to encode request payload")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to build backend request")
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.store.Token(ctx)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, goerrors.Wrap(err, goerrors.CategoryOperation, "backend request failed").
			WithMetadata(map[string]any{"method": method, "path": path})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to read backend response")
	}

	if resp.StatusCode == http.StatusUnauthorized && token != "" {
		c.logger.Warn("bearer token rejected on %s %s", method, path)
		return body, resp.StatusCode, ErrSessionExpired.Clone().WithMetadata(map[string]any{
			"method": method,
			"path":   path,
		})
	}

	return body, resp.StatusCode, nil
}

func successful(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// backendMessage extracts the backend's human-readable rejection message,
// returning "" when none is present.
func backendMessage(body []byte) string {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return envelope.Message
}

// requestFailure maps a transport-level failure onto the operation's typed
// error, preserving session-expiry signals untouched.
func requestFailure(base *goerrors.Error, err error) error {
	if IsSessionExpired(err) || IsStorageError(err) {
		return err
	}
	return goerrors.Wrap(err, base.Category, base.Message).
		WithTextCode(base.TextCode)
}
