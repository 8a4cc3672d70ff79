package security

import (
	"testing"
	"time"
)

func TestUserTokenRoundTrip(t *testing.T) {
	signed, err := SignUserToken("secret", "kakao_42", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, errParse := ParseUserToken("secret", signed)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.UID != "kakao_42" {
		t.Fatalf("expected uid=kakao_42, got %q", claims.UID)
	}
}

func TestParseUserToken_WrongSecret(t *testing.T) {
	signed, err := SignUserToken("secret", "kakao_42", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, errParse := ParseUserToken("other", signed); errParse == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	signed, err := SignAdminToken("secret", 7, "ops", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, errParse := ParseAdminToken("secret", signed)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.AdminID != 7 || claims.Username != "ops" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !VerifyPassword(hash, "hunter2") {
		t.Fatalf("expected password to verify")
	}
	if VerifyPassword(hash, "hunter3") {
		t.Fatalf("expected wrong password to fail")
	}
}
