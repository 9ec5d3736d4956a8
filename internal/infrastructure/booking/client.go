package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"event-booking/internal/domain/event"
	"event-booking/internal/domain/user"
)

// TokenSource supplies the current bearer credential. An empty token means
// the request goes out unauthenticated and the service's rejection is
// surfaced unchanged — no retry, no refresh.
type TokenSource interface {
	Token() string
}

// Client wraps the booking service's JSON-over-HTTP API. Timestamps are
// converted to local time values on receipt and serialized back on send.
type Client interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (user.User, error)
	FetchUsers(ctx context.Context) ([]user.User, error)
	FetchTimeSlots(ctx context.Context) ([]event.TimeSlot, error)
	UpdatePreferences(ctx context.Context, userID string, prefs []event.Category) (user.User, error)
	Book(ctx context.Context, slotID string) (event.TimeSlot, error)
	Cancel(ctx context.Context, slotID string) (event.TimeSlot, error)
	CreateSlot(ctx context.Context, slot event.TimeSlot) (event.TimeSlot, error)
	UpdateSlot(ctx context.Context, slot event.TimeSlot) (event.TimeSlot, error)
	DeleteSlot(ctx context.Context, slotID string) error
}

// APIError carries a service rejection to the caller unchanged.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("booking service: status=%d message=%s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a missing/invalid/expired
// credential rejection.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type httpClient struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, log *zap.Logger) Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (c *httpClient) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/token", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", errors.New("token endpoint returned no access token")
	}
	return out.AccessToken, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *httpClient) Register(ctx context.Context, name, email, password string) (user.User, error) {
	var out wireUser
	err := c.do(ctx, http.MethodPost, "/register", registerRequest{Name: name, Email: email, Password: password}, &out)
	if err != nil {
		return user.User{}, err
	}
	return out.toDomain(), nil
}

// FetchUsers returns the users visible to this client. The service only
// exposes the authenticated account, so the result is that single user.
func (c *httpClient) FetchUsers(ctx context.Context) ([]user.User, error) {
	var out wireUser
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &out); err != nil {
		return nil, err
	}
	return []user.User{out.toDomain()}, nil
}

func (c *httpClient) FetchTimeSlots(ctx context.Context) ([]event.TimeSlot, error) {
	var out []wireSlot
	if err := c.do(ctx, http.MethodGet, "/timeslots", nil, &out); err != nil {
		return nil, err
	}

	slots := make([]event.TimeSlot, 0, len(out))
	for _, w := range out {
		s, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

type preferencesRequest struct {
	Preferences string `json:"preferences"`
}

func (c *httpClient) UpdatePreferences(ctx context.Context, userID string, prefs []event.Category) (user.User, error) {
	var out wireUser
	path := "/users/" + url.PathEscape(userID) + "/preferences"
	err := c.do(ctx, http.MethodPut, path, preferencesRequest{Preferences: joinPreferences(prefs)}, &out)
	if err != nil {
		return user.User{}, err
	}
	return out.toDomain(), nil
}

func (c *httpClient) Book(ctx context.Context, slotID string) (event.TimeSlot, error) {
	return c.slotCall(ctx, http.MethodPost, "/book/"+url.PathEscape(slotID), nil)
}

func (c *httpClient) Cancel(ctx context.Context, slotID string) (event.TimeSlot, error) {
	return c.slotCall(ctx, http.MethodPost, "/cancel/"+url.PathEscape(slotID), nil)
}

func (c *httpClient) CreateSlot(ctx context.Context, slot event.TimeSlot) (event.TimeSlot, error) {
	return c.slotCall(ctx, http.MethodPost, "/timeslots", slotToWire(slot))
}

func (c *httpClient) UpdateSlot(ctx context.Context, slot event.TimeSlot) (event.TimeSlot, error) {
	return c.slotCall(ctx, http.MethodPut, "/timeslots/"+url.PathEscape(slot.ID), slotToWire(slot))
}

func (c *httpClient) DeleteSlot(ctx context.Context, slotID string) error {
	return c.do(ctx, http.MethodDelete, "/timeslots/"+url.PathEscape(slotID), nil, nil)
}

func (c *httpClient) slotCall(ctx context.Context, method, path string, body any) (event.TimeSlot, error) {
	var out wireSlot
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return event.TimeSlot{}, err
	}
	return out.toDomain()
}

// errorResponse is the service's rejection body shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(rb))
		var er errorResponse
		if json.Unmarshal(rb, &er) == nil && er.Detail != "" {
			msg = er.Detail
		}
		c.log.Warn("booking service rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	return dec.Decode(out)
}

var _ Client = (*httpClient)(nil)
