package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("klavier-und-geige")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "klavier-und-geige" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("klavier-und-geige", hash) {
		t.Fatal("correct password must verify")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("wrong password must not verify")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("42", "teacher", "test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "42" || claims.Role != "teacher" {
		t.Fatalf("claims = %+v, want user 42 role teacher", claims)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) <= 0 {
		t.Fatal("token must carry a future expiry")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("42", "teacher", "test-secret")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestValidateTokenRejectsWrongAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "42", Role: "admin"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := ValidateToken(token, "test-secret"); err == nil {
		t.Fatal("alg=none token must be rejected")
	}
}
