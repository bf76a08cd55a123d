package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Default endpoints and client identity for the subscription OAuth flow.
const (
	DefaultClientID     = "9d1c250a-e61b-44d9-88ed-5944d1962f5e"
	DefaultAuthorizeURL = "https://console.anthropic.com/oauth/authorize"
	DefaultTokenURL     = "https://console.anthropic.com/v1/oauth/token"
	DefaultRedirectURI  = "https://console.anthropic.com/oauth/code/callback"
)

// DefaultScopes are the scopes requested during login.
var DefaultScopes = []string{"org:create_api_key", "user:profile", "user:inference"}

const (
	defaultExpiresInSeconds = 3600
	tokenRequestTimeout     = 30 * time.Second
)

// httpClient abstracts the HTTP transport so tests can inject a fake.
type httpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Options configures a Client. Zero fields fall back to production defaults.
type Options struct {
	AuthorizeURL string
	TokenURL     string
	ClientID     string
	RedirectURI  string
	Scopes       []string
	HTTPClient   httpClient
	Store        *Store
	Logger       *zap.Logger
	Now          func() time.Time
}

// Client drives the OAuth2 authorization-code flow with PKCE and keeps the
// persisted token fresh.
type Client struct {
	authorizeURL string
	tokenURL     string
	clientID     string
	redirectURI  string
	scopes       []string
	httpClient   httpClient
	store        *Store
	logger       *zap.Logger
	now          func() time.Time
}

// Session carries the state of an in-progress login.
type Session struct {
	Verifier     string
	State        string
	AuthorizeURL string
}

// NewClient creates an OAuth client from the provided options.
func NewClient(options Options) *Client {
	if options.AuthorizeURL == "" {
		options.AuthorizeURL = DefaultAuthorizeURL
	}
	if options.TokenURL == "" {
		options.TokenURL = DefaultTokenURL
	}
	if options.ClientID == "" {
		options.ClientID = DefaultClientID
	}
	if options.RedirectURI == "" {
		options.RedirectURI = DefaultRedirectURI
	}
	if len(options.Scopes) == 0 {
		options.Scopes = DefaultScopes
	}
	if options.HTTPClient == nil {
		options.HTTPClient = &http.Client{Timeout: tokenRequestTimeout}
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Client{
		authorizeURL: options.AuthorizeURL,
		tokenURL:     options.TokenURL,
		clientID:     options.ClientID,
		redirectURI:  options.RedirectURI,
		scopes:       options.Scopes,
		httpClient:   options.HTTPClient,
		store:        options.Store,
		logger:       options.Logger,
		now:          options.Now,
	}
}

// Store returns the token store the client persists through.
func (client *Client) Store() *Store {
	return client.store
}

// BeginLogin generates PKCE material and the authorization URL to open in a browser.
func (client *Client) BeginLogin() (Session, error) {
	codeVerifier, codeChallenge, pkceError := GeneratePKCE()
	if pkceError != nil {
		return Session{}, pkceError
	}
	stateToken, stateError := GenerateStateToken()
	if stateError != nil {
		return Session{}, stateError
	}

	queryValues := url.Values{}
	queryValues.Set("client_id", client.clientID)
	queryValues.Set("response_type", "code")
	queryValues.Set("redirect_uri", client.redirectURI)
	queryValues.Set("scope", strings.Join(client.scopes, " "))
	queryValues.Set("code_challenge", codeChallenge)
	queryValues.Set("code_challenge_method", "S256")
	queryValues.Set("state", stateToken)

	return Session{
		Verifier:     codeVerifier,
		State:        stateToken,
		AuthorizeURL: client.authorizeURL + "?" + queryValues.Encode(),
	}, nil
}

// CompleteLogin exchanges the authorization code for a token and persists it.
// The pasted code may carry the state fragment after a '#'.
func (client *Client) CompleteLogin(requestContext context.Context, session Session, pastedCode string) (Token, error) {
	authorizationCode := pastedCode
	stateToken := session.State
	if separatorIndex := strings.Index(pastedCode, "#"); separatorIndex >= 0 {
		authorizationCode = pastedCode[:separatorIndex]
		stateToken = pastedCode[separatorIndex+1:]
	}
	if stateToken != session.State {
		return Token{}, fmt.Errorf("state mismatch: authorization response does not belong to this login attempt")
	}

	payload := map[string]string{
		"grant_type":    "authorization_code",
		"code":          authorizationCode,
		"state":         stateToken,
		"client_id":     client.clientID,
		"redirect_uri":  client.redirectURI,
		"code_verifier": session.Verifier,
	}
	token, exchangeError := client.requestToken(requestContext, payload, Token{})
	if exchangeError != nil {
		return Token{}, fmt.Errorf("exchange authorization code: %w", exchangeError)
	}
	if saveError := client.saveToken(token); saveError != nil {
		return Token{}, saveError
	}
	return token, nil
}

// Refresh exchanges the refresh token for a new access token and persists the
// result. When the response omits a refresh token, the previous one is retained.
func (client *Client) Refresh(requestContext context.Context, currentToken Token) (Token, error) {
	payload := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": currentToken.RefreshToken,
		"client_id":     client.clientID,
	}
	refreshedToken, refreshError := client.requestToken(requestContext, payload, currentToken)
	if refreshError != nil {
		return Token{}, fmt.Errorf("refresh access token: %w", refreshError)
	}
	if saveError := client.saveToken(refreshedToken); saveError != nil {
		return Token{}, saveError
	}
	return refreshedToken, nil
}

// ValidAccessToken returns a usable access token, refreshing at most once when
// the stored token expires within the refresh buffer. An absent or malformed
// token file, or a failed refresh, yields ("", false).
func (client *Client) ValidAccessToken(requestContext context.Context) (string, bool) {
	if client.store == nil {
		return "", false
	}
	storedToken, present := client.store.Load()
	if !present {
		return "", false
	}
	if !storedToken.NeedsRefresh(client.now()) {
		return storedToken.AccessToken, true
	}
	refreshedToken, refreshError := client.Refresh(requestContext, storedToken)
	if refreshError != nil {
		client.logger.Warn("token refresh failed", zap.Error(refreshError))
		return "", false
	}
	return refreshedToken.AccessToken, true
}

// requestToken posts a form-encoded grant request and decodes the token response.
func (client *Client) requestToken(requestContext context.Context, payload map[string]string, previousToken Token) (Token, error) {
	formValues := url.Values{}
	for fieldName, fieldValue := range payload {
		formValues.Set(fieldName, fieldValue)
	}

	httpRequest, requestError := http.NewRequestWithContext(requestContext, http.MethodPost, client.tokenURL, strings.NewReader(formValues.Encode()))
	if requestError != nil {
		return Token{}, fmt.Errorf("build token request: %w", requestError)
	}
	httpRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResponse, doError := client.httpClient.Do(httpRequest)
	if doError != nil {
		return Token{}, fmt.Errorf("send token request: %w", doError)
	}
	defer func() {
		if closeError := httpResponse.Body.Close(); closeError != nil {
			client.logger.Warn("close token response body", zap.Error(closeError))
		}
	}()

	responseBody, readError := io.ReadAll(httpResponse.Body)
	if readError != nil {
		return Token{}, fmt.Errorf("read token response: %w", readError)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token endpoint returned status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decodedResponse struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if decodeError := json.Unmarshal(responseBody, &decodedResponse); decodeError != nil {
		return Token{}, fmt.Errorf("decode token response: %w", decodeError)
	}
	if decodedResponse.AccessToken == "" {
		return Token{}, fmt.Errorf("token response carries no access token")
	}

	refreshToken := decodedResponse.RefreshToken
	if refreshToken == "" {
		refreshToken = previousToken.RefreshToken
	}
	expiresIn := decodedResponse.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresInSeconds
	}

	return Token{
		AccessToken:  decodedResponse.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    client.now().Unix() + expiresIn,
	}, nil
}

// saveToken persists the token when a store is configured.
func (client *Client) saveToken(token Token) error {
	if client.store == nil {
		return nil
	}
	if saveError := client.store.Save(token); saveError != nil {
		return fmt.Errorf("persist token: %w", saveError)
	}
	return nil
}
