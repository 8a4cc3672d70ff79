// Package paypal is a thin client for the PayPal REST API surface this
// service uses: OAuth2 client-credentials tokens, catalog products, billing
// plans, and subscriptions.
package paypal

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nextshorts/nextshorts/internal/config"
)

// API base URLs per mode.
const (
	liveAPIBase    = "https://api-m.paypal.com"
	sandboxAPIBase = "https://api-m.sandbox.paypal.com"
)

// Billing interval units accepted by CreatePlan.
const (
	// IntervalMonth bills monthly.
	IntervalMonth = "MONTH"
	// IntervalYear bills yearly.
	IntervalYear = "YEAR"
)

// maxErrorBodyBytes bounds upstream error bodies attached to errors.
const maxErrorBodyBytes = 2048

// Client calls the PayPal REST API.
type Client struct {
	// BaseURL is the API origin; overridable in tests.
	BaseURL string
	// HTTPClient performs requests; overridable in tests.
	HTTPClient *http.Client

	clientID     string
	clientSecret string
}

// New constructs a Client from provider config. It fails when credentials
// are absent so handlers can refuse to start the operation.
func New(cfg config.ProviderConfig) (*Client, error) {
	clientID := strings.TrimSpace(cfg.PayPalClientID)
	clientSecret := strings.TrimSpace(cfg.PayPalClientSecret)
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("paypal: missing client credentials")
	}

	baseURL := sandboxAPIBase
	if strings.EqualFold(strings.TrimSpace(cfg.PayPalMode), "live") {
		baseURL = liveAPIBase
	}

	return &Client{
		BaseURL:      baseURL,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}, nil
}

// AccessToken exchanges client credentials for a bearer token.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	body := strings.NewReader("grant_type=client_credentials")
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/oauth2/token", body)
	if errReq != nil {
		return "", fmt.Errorf("paypal: build token request: %w", errReq)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return "", fmt.Errorf("paypal: token request: %w", errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", upstreamError("token", resp)
	}

	// tokenResponse maps the OAuth2 token fields we consume.
	var tokenResponse struct {
		AccessToken string `json:"access_token"`
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(&tokenResponse); errDecode != nil {
		return "", fmt.Errorf("paypal: decode token response: %w", errDecode)
	}
	if strings.TrimSpace(tokenResponse.AccessToken) == "" {
		return "", fmt.Errorf("paypal: empty access token")
	}
	return tokenResponse.AccessToken, nil
}

// CreateProduct creates a catalog product and returns its ID.
func (c *Client) CreateProduct(ctx context.Context, name, description string) (string, error) {
	payload := map[string]any{
		"name":        name,
		"description": description,
		"type":        "SERVICE",
		"category":    "SOFTWARE",
	}

	var created struct {
		ID string `json:"id"`
	}
	if errPost := c.postJSON(ctx, "/v1/catalogs/products", payload, &created); errPost != nil {
		return "", errPost
	}
	if created.ID == "" {
		return "", fmt.Errorf("paypal: create product: empty id")
	}
	return created.ID, nil
}

// PlanSpec describes a billing plan to create.
type PlanSpec struct {
	ProductID     string
	Name          string
	Description   string
	Price         float64
	IntervalUnit  string // IntervalMonth or IntervalYear.
	IntervalCount int    // Defaults to 1.
}

// CreatePlan creates an infinite-cycle billing plan and returns its ID.
func (c *Client) CreatePlan(ctx context.Context, spec PlanSpec) (string, error) {
	intervalCount := spec.IntervalCount
	if intervalCount <= 0 {
		intervalCount = 1
	}

	payload := map[string]any{
		"product_id":  spec.ProductID,
		"name":        spec.Name,
		"description": spec.Description,
		"status":      "ACTIVE",
		"billing_cycles": []map[string]any{
			{
				"frequency": map[string]any{
					"interval_unit":  spec.IntervalUnit,
					"interval_count": intervalCount,
				},
				"tenure_type":  "REGULAR",
				"sequence":     1,
				"total_cycles": 0,
				"pricing_scheme": map[string]any{
					"fixed_price": map[string]any{
						"value":         strconv.FormatFloat(spec.Price, 'f', -1, 64),
						"currency_code": "USD",
					},
				},
			},
		},
		"payment_preferences": map[string]any{
			"auto_bill_outstanding":     true,
			"setup_fee":                 map[string]any{"value": "0", "currency_code": "USD"},
			"setup_fee_failure_action":  "CONTINUE",
			"payment_failure_threshold": 3,
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	if errPost := c.postJSON(ctx, "/v1/billing/plans", payload, &created); errPost != nil {
		return "", errPost
	}
	if created.ID == "" {
		return "", fmt.Errorf("paypal: create plan: empty id")
	}
	return created.ID, nil
}

// SubscriptionRequest describes a subscription to create for a user. UserID
// is carried as custom_id so webhook events can be correlated back.
type SubscriptionRequest struct {
	PlanID          string
	UserID          string
	SubscriberEmail string
	BrandName       string
	ReturnURL       string
	CancelURL       string
}

// Subscription is the created subscription plus its approval redirect.
type Subscription struct {
	ID          string
	ApprovalURL string
}

// CreateSubscription creates a subscription awaiting subscriber approval.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	payload := map[string]any{
		"plan_id": req.PlanID,
		"subscriber": map[string]any{
			"email_address": req.SubscriberEmail,
		},
		"application_context": map[string]any{
			"brand_name":          req.BrandName,
			"shipping_preference": "NO_SHIPPING",
			"user_action":         "SUBSCRIBE_NOW",
			"payment_method": map[string]any{
				"payer_selected":  "PAYPAL",
				"payee_preferred": "IMMEDIATE_PAYMENT_REQUIRED",
			},
			"return_url": req.ReturnURL,
			"cancel_url": req.CancelURL,
		},
		"custom_id": req.UserID,
	}

	// created maps the subscription fields we consume.
	var created struct {
		ID    string `json:"id"`
		Links []struct {
			Rel  string `json:"rel"`
			Href string `json:"href"`
		} `json:"links"`
	}
	if errPost := c.postJSON(ctx, "/v1/billing/subscriptions", payload, &created); errPost != nil {
		return nil, errPost
	}
	if created.ID == "" {
		return nil, fmt.Errorf("paypal: create subscription: empty id")
	}

	result := &Subscription{ID: created.ID}
	for _, link := range created.Links {
		if link.Rel == "approve" {
			result.ApprovalURL = link.Href
			break
		}
	}
	return result, nil
}

// postJSON issues an authenticated POST and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	token, errToken := c.AccessToken(ctx)
	if errToken != nil {
		return errToken
	}

	body, errMarshal := json.Marshal(payload)
	if errMarshal != nil {
		return fmt.Errorf("paypal: marshal %s payload: %w", path, errMarshal)
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if errReq != nil {
		return fmt.Errorf("paypal: build %s request: %w", path, errReq)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := c.HTTPClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("paypal: %s request: %w", path, errDo)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return upstreamError(path, resp)
	}
	if out == nil {
		return nil
	}
	if errDecode := json.NewDecoder(resp.Body).Decode(out); errDecode != nil {
		return fmt.Errorf("paypal: decode %s response: %w", path, errDecode)
	}
	return nil
}

// upstreamError builds an error carrying the upstream status and a bounded
// body snippet for diagnostics.
func upstreamError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return fmt.Errorf("paypal: %s failed: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
