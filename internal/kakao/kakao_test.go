package kakao

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, auth, api http.Handler) *Client {
	t.Helper()
	authServer := httptest.NewServer(auth)
	t.Cleanup(authServer.Close)
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	client, err := New("kakao-client-id")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.AuthBaseURL = authServer.URL
	client.APIBaseURL = apiServer.URL
	client.HTTPClient = authServer.Client()
	return client
}

func TestNew_MissingClientID(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for missing client id")
	}
}

func TestExchangeCode(t *testing.T) {
	auth := http.NewServeMux()
	auth.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if errParse := r.ParseForm(); errParse != nil {
			t.Errorf("parse form: %v", errParse)
		}
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "auth-code" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		if r.PostForm.Get("client_id") != "kakao-client-id" {
			t.Errorf("unexpected client id: %q", r.PostForm.Get("client_id"))
		}
		_, _ = w.Write([]byte(`{"access_token": "kat-1", "token_type": "bearer"}`))
	})

	client := testClient(t, auth, http.NewServeMux())
	token, err := client.ExchangeCode(context.Background(), "auth-code", "https://app.test/api/auth/kakao/callback")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if token != "kat-1" {
		t.Fatalf("expected token kat-1, got %q", token)
	}
}

func TestExchangeCode_UpstreamFailure(t *testing.T) {
	auth := http.NewServeMux()
	auth.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "invalid_grant"}`))
	})

	client := testClient(t, auth, http.NewServeMux())
	if _, err := client.ExchangeCode(context.Background(), "stale", "https://app.test/cb"); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestUserProfile(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kat-1" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{
			"id": 12345,
			"kakao_account": {"email": "user@example.com", "profile": {"nickname": "account-nick"}},
			"properties": {"nickname": "prop-nick", "profile_image": "https://img.test/p.jpg"}
		}`))
	})

	client := testClient(t, http.NewServeMux(), api)
	profile, err := client.UserProfile(context.Background(), "kat-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.UID != "kakao_12345" {
		t.Fatalf("expected uid kakao_12345, got %q", profile.UID)
	}
	if profile.DisplayName != "prop-nick" || profile.Email != "user@example.com" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestUserProfile_FallbackDisplayName(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 77}`))
	})

	client := testClient(t, http.NewServeMux(), api)
	profile, err := client.UserProfile(context.Background(), "kat-1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.DisplayName != "Kakao User" {
		t.Fatalf("expected fallback display name, got %q", profile.DisplayName)
	}
}

func TestUserProfile_MissingID(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	client := testClient(t, http.NewServeMux(), api)
	if _, err := client.UserProfile(context.Background(), "kat-1"); err == nil {
		t.Fatalf("expected error for profile without id")
	}
}
