// Package linkedin is a minimal LinkedIn REST client covering OAuth,
// post creation, and the comments sub-resource.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultAuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	defaultTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	defaultAPIURL   = "https://api.linkedin.com/v2"

	oauthScopes  = "openid profile email w_member_social"
	callbackAddr = "localhost:8000"
)

// Auth drives the browser-based authorization-code flow and holds the
// resulting session.
type Auth struct {
	clientID     string
	clientSecret string
	redirectURI  string

	authURL  string
	tokenURL string
	apiURL   string

	httpClient *http.Client

	// populated by Authenticate
	accessToken string
	personID    string
}

// AuthOption configures Auth.
type AuthOption func(*Auth)

// WithEndpoints overrides the OAuth and API base URLs (for testing).
func WithEndpoints(authURL, tokenURL, apiURL string) AuthOption {
	return func(a *Auth) {
		a.authURL = authURL
		a.tokenURL = tokenURL
		a.apiURL = apiURL
	}
}

// WithToken seeds an existing session, skipping the browser flow.
func WithToken(accessToken, personID string) AuthOption {
	return func(a *Auth) {
		a.accessToken = accessToken
		a.personID = personID
	}
}

// NewAuth creates an authenticator for the given OAuth application.
func NewAuth(clientID, clientSecret string, opts ...AuthOption) *Auth {
	a := &Auth{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  "http://" + callbackAddr + "/callback",
		authURL:      defaultAuthURL,
		tokenURL:     defaultTokenURL,
		apiURL:       defaultAPIURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticated reports whether a session token is held.
func (a *Auth) Authenticated() bool {
	return a.accessToken != ""
}

// PersonID returns the authenticated member's identifier. Only valid after
// Authenticate (or a profile lookup).
func (a *Auth) PersonID() string {
	return a.personID
}

type callbackResult struct {
	code string
	err  error
}

// Authenticate runs the authorization-code flow: prints the authorize URL,
// serves a single loopback callback, exchanges the code for a bearer
// token, and resolves the member's person ID. It blocks until the callback
// arrives or ctx is cancelled.
func (a *Auth) Authenticate(ctx context.Context) error {
	state := uuid.NewString()

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", a.clientID)
	params.Set("redirect_uri", a.redirectURI)
	params.Set("scope", oauthScopes)
	params.Set("state", state)

	authorizeURL := a.authURL + "?" + params.Encode()
	slog.Info("open this URL in a browser to authorize", "url", authorizeURL)

	code, err := a.awaitCallback(ctx, state)
	if err != nil {
		return err
	}

	if err := a.exchangeCode(ctx, code); err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	if _, err := a.Profile(ctx); err != nil {
		return fmt.Errorf("resolve profile: %w", err)
	}

	slog.Info("authenticated with LinkedIn", "person_id", a.personID)
	return nil
}

// awaitCallback serves exactly one OAuth callback on the loopback port.
func (a *Auth) awaitCallback(ctx context.Context, state string) (string, error) {
	results := make(chan callbackResult, 1)

	r := chi.NewRouter()
	r.Get("/callback", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		switch {
		case q.Get("error") != "":
			fmt.Fprintf(w, "Authentication failed: %s. You can close this window.", q.Get("error_description"))
			results <- callbackResult{err: fmt.Errorf("oauth error: %s", q.Get("error"))}
		case q.Get("state") != state:
			fmt.Fprint(w, "Authentication failed: state mismatch. You can close this window.")
			results <- callbackResult{err: fmt.Errorf("oauth state mismatch")}
		case q.Get("code") != "":
			fmt.Fprint(w, "Authentication successful! You can close this window.")
			results <- callbackResult{code: q.Get("code")}
		default:
			fmt.Fprint(w, "Unexpected callback. You can close this window.")
			results <- callbackResult{err: fmt.Errorf("callback without code or error")}
		}
	})

	srv := &http.Server{Addr: callbackAddr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case err := <-errCh:
		return "", fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (a *Auth) exchangeCode(ctx context.Context, code string) error {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.redirectURI)
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}

	a.accessToken = token.AccessToken
	slog.Info("obtained access token", "expires_in_secs", token.ExpiresIn)
	return nil
}

// Profile fetches the authenticated member's OpenID profile and caches the
// person ID from its sub claim.
func (a *Auth) Profile(ctx context.Context) (map[string]any, error) {
	if !a.Authenticated() {
		return nil, fmt.Errorf("not authenticated")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.apiURL+"/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var profile map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if sub, ok := profile["sub"].(string); ok && sub != "" {
		a.personID = sub
	}
	return profile, nil
}
