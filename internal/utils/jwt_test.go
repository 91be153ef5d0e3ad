package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundtrip(t *testing.T) {
	id := uuid.New()

	token, err := GenerateToken("secret", id, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	got, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != id {
		t.Fatalf("parsed %s, want %s", got, id)
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken("secret", token); err == nil {
		t.Fatal("expired token must not parse")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ParseToken("other", token); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}
