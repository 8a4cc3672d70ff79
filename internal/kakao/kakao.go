// Package kakao is a thin client for the Kakao OAuth endpoints: the
// authorization-code token exchange and the user profile fetch.
package kakao

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// OAuth endpoints.
const (
	defaultAuthBase = "https://kauth.kakao.com"
	defaultAPIBase  = "https://kapi.kakao.com"
)

// maxErrorBodyBytes bounds upstream error bodies attached to errors.
const maxErrorBodyBytes = 2048

// Client calls the Kakao OAuth and user APIs.
type Client struct {
	// AuthBaseURL is the kauth origin; overridable in tests.
	AuthBaseURL string
	// APIBaseURL is the kapi origin; overridable in tests.
	APIBaseURL string
	// HTTPClient performs requests; overridable in tests.
	HTTPClient *http.Client

	clientID string
}

// New constructs a Client. It fails when the client ID is absent so the
// login handler can refuse to start the flow.
func New(clientID string) (*Client, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, fmt.Errorf("kakao: missing client id")
	}
	return &Client{
		AuthBaseURL: defaultAuthBase,
		APIBaseURL:  defaultAPIBase,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
		clientID:    clientID,
	}, nil
}

// ExchangeCode exchanges an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.clientID)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthBaseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if errReq != nil {
		return "", fmt.Errorf("kakao: build token request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("kakao: token request: %w", errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError("token exchange", resp)
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&tokenResponse); errDecode != nil {
		return "", fmt.Errorf("kakao: decode token response: %w", errDecode)
	}
	if strings.TrimSpace(tokenResponse.AccessToken) == "" {
		return "", fmt.Errorf("kakao: empty access token")
	}
	return tokenResponse.AccessToken, nil
}

// Profile is a Kakao user profile reduced to the fields this service uses.
type Profile struct {
	// UID is the provider-scoped account ID, "kakao_<id>".
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// UserProfile fetches the profile behind an access token.
func (c *Client) UserProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, errReq := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/v2/user/me", nil)
	if errReq != nil {
		return nil, fmt.Errorf("kakao: build profile request: %w", errReq)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return nil, fmt.Errorf("kakao: profile request: %w", errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamError("profile fetch", resp)
	}

	// payload maps the /v2/user/me fields this service consumes.
	var payload struct {
		ID           int64 `json:"id"`
		KakaoAccount struct {
			Email   string `json:"email"`
			Profile struct {
				Nickname        string `json:"nickname"`
				ProfileImageURL string `json:"profile_image_url"`
			} `json:"profile"`
		} `json:"kakao_account"`
		Properties struct {
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"properties"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&payload); errDecode != nil {
		return nil, fmt.Errorf("kakao: decode profile response: %w", errDecode)
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("kakao: profile without account id")
	}

	displayName := payload.Properties.Nickname
	if displayName == "" {
		displayName = payload.KakaoAccount.Profile.Nickname
	}
	if displayName == "" {
		displayName = "Kakao User"
	}
	photoURL := payload.Properties.ProfileImage
	if photoURL == "" {
		photoURL = payload.KakaoAccount.Profile.ProfileImageURL
	}

	return &Profile{
		UID:         "kakao_" + strconv.FormatInt(payload.ID, 10),
		Email:       payload.KakaoAccount.Email,
		DisplayName: displayName,
		PhotoURL:    photoURL,
	}, nil
}

func upstreamError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return fmt.Errorf("kakao: %s failed: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
