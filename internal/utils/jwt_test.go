package utils

import (
	"testing"
)

func TestGenerateAndParseToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateToken(42, "+5511999990001", "participant", 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != 42 || claims.Phone != "+5511999990001" || claims.Role != "participant" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "coletiva" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	SetJWTSecret("secret-a")
	token, err := GenerateToken(1, "+5511999990001", "admin", 1)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	SetJWTSecret("secret-b")
	if _, err := ParseToken(token); err == nil {
		t.Error("token signed with another secret must not parse")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	SetJWTSecret("test-secret")
	if _, err := ParseToken("not.a.token"); err == nil {
		t.Error("garbage must not parse")
	}
}
