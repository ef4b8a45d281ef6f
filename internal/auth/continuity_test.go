package auth

import (
	"errors"
	"testing"
	"time"
)

func TestContinuityCodecRoundTrip(t *testing.T) {
	codec, err := NewContinuityCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	token, err := codec.Issue("conn-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	connID, err := codec.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if connID != "conn-1" {
		t.Fatalf("expected conn-1, got %q", connID)
	}
}

func TestContinuityCodecRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewContinuityCodec("secret-a", time.Hour)
	verifier, _ := NewContinuityCodec("secret-b", time.Hour)

	token, err := issuer.Issue("conn-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestContinuityCodecRejectsGarbageAndEmpty(t *testing.T) {
	codec, _ := NewContinuityCodec("", time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := codec.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestContinuityCodecRejectsExpired(t *testing.T) {
	codec, _ := NewContinuityCodec("test-secret", -time.Minute)

	token, err := codec.Issue("conn-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// A negative ttl leaves the token without an expiry.
	if _, err := codec.Parse(token); err != nil {
		t.Fatalf("expected token without expiry to parse, got %v", err)
	}

	short, _ := NewContinuityCodec("test-secret", time.Nanosecond)
	token, err = short.Issue("conn-2")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := short.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}
