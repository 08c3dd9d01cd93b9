// Package identity signs teachers in against Firebase Authentication.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// DefaultEndpoint is the Identity Toolkit REST root.
const DefaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnavailable        = errors.New("identity provider unavailable")
)

// Teacher is a signed-in account.
type Teacher struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// TokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Client signs in with email/password over REST and verifies ID tokens
// issued to the browser.
type Client struct {
	APIKey   string
	Endpoint string
	HTTP     *http.Client

	verifier TokenVerifier
}

// New creates a client. verifier may be nil when ID-token login is not configured.
func New(apiKey string, verifier TokenVerifier) *Client {
	return &Client{
		APIKey:   apiKey,
		Endpoint: DefaultEndpoint,
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		verifier: verifier,
	}
}

// NewVerifier builds a Firebase Admin auth client. Without a credentials file
// it runs unauthenticated, which is enough to verify ID tokens.
func NewVerifier(ctx context.Context, projectID, credentialsFile string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else {
		opts = append(opts, option.WithoutAuthentication())
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}

// SignInWithPassword checks email and password with Firebase.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Teacher, error) {
	body, _ := json.Marshal(map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})

	endpoint := c.Endpoint + "/accounts:signInWithPassword?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	if resp.StatusCode >= 300 {
		var out struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		bodyBytes, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(bodyBytes, &out) == nil && out.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, out.Error.Message)
		}
		return nil, ErrInvalidCredentials
	}

	var out struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	if out.LocalID == "" {
		return nil, ErrInvalidCredentials
	}
	return &Teacher{UID: out.LocalID, Email: out.Email, DisplayName: out.DisplayName}, nil
}

// VerifyIDToken accepts an ID token from a browser Firebase sign-in (Google).
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*Teacher, error) {
	if c.verifier == nil {
		return nil, fmt.Errorf("%w: ID-token sign-in is not configured", ErrUnavailable)
	}
	if idToken == "" {
		return nil, ErrInvalidCredentials
	}

	token, err := c.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	t := &Teacher{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		t.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		t.DisplayName = name
	}
	return t, nil
}
