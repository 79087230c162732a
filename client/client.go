package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"agriloop/listing"
)

var (
	// ErrNotLoggedIn signals an operation that needs a session without one.
	ErrNotLoggedIn = errors.New("client: not logged in")
)

// APIError is a non-2xx response from the server, carrying the
// human-readable message the backend put near the failing form.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("client: server returned %d: %s", e.StatusCode, e.Message)
}

// Listing mirrors the listing payload the server returns.
type Listing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	WasteType   string `json:"type"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Farmer      string `json:"farmer"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Verified    bool   `json:"verified"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Client talks to the marketplace API and owns the current-session slot.
// The slot is restored from the store at construction, before any caller
// can make a rendering decision on it, and is mutated only on login/logout.
type Client struct {
	baseURL string
	httpc   *http.Client
	store   *SessionStore

	mu      sync.RWMutex
	session *Session
}

// New builds a Client for the given base URL and restores any persisted
// session. A nil store keeps the session in memory only.
func New(baseURL string, store *SessionStore) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}

	if store != nil {
		session, err := store.Load()
		if err != nil {
			return nil, err
		}
		c.session = session
	}

	return c, nil
}

// CurrentSession returns the session slot, or nil when signed out. A
// restored session is trusted until an explicit Logout.
func (c *Client) CurrentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Signup registers a new account. It grants no session; call Login after.
func (c *Client) Signup(ctx context.Context, name, email, password, userType string) error {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"userType": userType,
	}
	return c.do(ctx, http.MethodPost, "/api/auth/signup", payload, http.StatusCreated, nil, "")
}

// Login authenticates and fills the session slot, both in memory and in the
// store.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{"email": email, "password": password}

	var resp struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		User    struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			UserType string `json:"userType"`
		} `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, http.StatusOK, &resp, ""); err != nil {
		return nil, err
	}

	session := &Session{
		UserID:   resp.User.ID,
		Name:     resp.User.Name,
		Email:    resp.User.Email,
		UserType: resp.User.UserType,
		Token:    resp.Token,
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Logout clears the session slot and its persisted copy.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()

	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// Listings fetches the full unfiltered listing set; any search or filtering
// happens on the caller's side.
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	var out []Listing
	if err := c.do(ctx, http.MethodGet, "/api/listings", nil, http.StatusOK, &out, ""); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateListing submits a new listing.
func (c *Client) CreateListing(ctx context.Context, params listing.CreateParams) error {
	return c.do(ctx, http.MethodPost, "/api/listings", params, http.StatusCreated, nil, "")
}

// DeleteListing removes a listing by id. Requires a session.
func (c *Client) DeleteListing(ctx context.Context, id string) error {
	session := c.CurrentSession()
	if session == nil {
		return ErrNotLoggedIn
	}
	return c.do(ctx, http.MethodDelete, "/api/listings/"+id, nil, http.StatusOK, nil, session.Token)
}

func (c *Client) do(ctx context.Context, method, path string, payload any, wantStatus int, out any, token string) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}

	return nil
}
