package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/occasio/occasio/internal/client/models"
	"github.com/occasio/occasio/internal/logging"
)

const (
	requestTimeout = 15 * time.Second

	// refreshLeeway triggers a proactive token refresh shortly before the
	// JWT exp claim, so guarded calls rarely hit the 401 path at all.
	refreshLeeway = 30 * time.Second
)

// HTTPClient implements Client against the JSON HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
	now     func() time.Time

	mu    sync.RWMutex
	token string
}

// NewHTTPClient constructs an HTTPClient for the given base URL.
func NewHTTPClient(baseURL string, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
		log:     log,
		now:     time.Now,
	}
}

// SetToken replaces the bearer token attached to guarded calls.
// An empty token detaches authentication entirely (logout).
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token.
func (c *HTTPClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Close releases idle transport connections.
func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *HTTPClient) Signup(ctx context.Context, user *models.User) (string, error) {
	payload := map[string]string{
		"name":     user.Name,
		"email":    user.Email,
		"password": user.Password,
		"mobile":   user.Mobile,
	}
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, "/signup", nil, payload, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) SendOTP(ctx context.Context, email string) (string, error) {
	return c.postEmail(ctx, "/send-otp", email)
}

func (c *HTTPClient) ResendOTP(ctx context.Context, email string) (string, error) {
	return c.postEmail(ctx, "/resend-otp", email)
}

func (c *HTTPClient) postEmail(ctx context.Context, path, email string) (string, error) {
	var resp messageResponse
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"email": email}, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var resp messageResponse
	payload := map[string]string{"email": email, "otp": otp}
	if err := c.do(ctx, http.MethodPost, "/verify-otp", nil, payload, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var resp LoginResult
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", nil, payload, &resp, false); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, email, newPassword string) (string, error) {
	var resp messageResponse
	payload := map[string]string{"email": email, "newPassword": newPassword}
	if err := c.do(ctx, http.MethodPost, "/reset-password", nil, payload, &resp, false); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RefreshToken exchanges the current (old or expiring) token for a fresh one
// and installs it on the client.
func (c *HTTPClient) RefreshToken(ctx context.Context) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.request(ctx, http.MethodPost, "/refresh-token", nil, nil, &resp, true, false); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

func (c *HTTPClient) GetEvents(ctx context.Context, email string) ([]models.Event, error) {
	var resp struct {
		Events []models.Event `json:"events"`
	}
	query := url.Values{"email": []string{email}}
	if err := c.do(ctx, http.MethodGet, "/get-events", query, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// UpdateUser pushes the full User+Events snapshot. This is the one bulk
// operation; everything else sends minimal payloads.
func (c *HTTPClient) UpdateUser(ctx context.Context, user *models.User) error {
	return c.do(ctx, http.MethodPost, "/update-user", nil, user, nil, true)
}

func (c *HTTPClient) GetUsers(ctx context.Context) ([]models.User, error) {
	var resp struct {
		Users []models.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-users", nil, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) error {
	return c.request(ctx, method, path, query, body, out, auth, auth)
}

// request performs one HTTP exchange. When allowRefresh is set, a 401 on a
// guarded call triggers exactly one RefreshToken followed by one retry; the
// retry runs with allowRefresh=false so a second 401 fails for good.
func (c *HTTPClient) request(ctx context.Context, method, path string, query url.Values, body, out any, auth, allowRefresh bool) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if auth {
		token := c.Token()
		if allowRefresh && tokenExpiringSoon(token, c.now()) {
			if fresh, err := c.RefreshToken(ctx); err == nil {
				token = fresh
			} else {
				c.log.Warn(ctx, "proactive token refresh failed", "error", err)
			}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	if resp.StatusCode == http.StatusUnauthorized && auth && allowRefresh {
		if _, err := c.RefreshToken(ctx); err == nil {
			return c.request(ctx, method, path, query, body, out, auth, false)
		}
	}

	return newAPIError(resp.StatusCode, respBody)
}

// tokenExpiringSoon reports whether the token carries a JWT exp claim inside
// the refresh leeway. Opaque tokens are assumed valid until the server says
// otherwise.
func tokenExpiringSoon(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Add(-refreshLeeway))
}
