package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, hash, exp, err := Generate(opts, "u-1", "admin")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" || hash == "" {
		t.Fatal("empty token or hash")
	}
	if !exp.After(time.Now()) {
		t.Fatal("token already expired")
	}
	if hash != HashToken(token) {
		t.Fatal("hash mismatch")
	}

	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject() != "u-1" || claims.Role() != "admin" {
		t.Fatalf("claims = sub=%q role=%q", claims.Subject(), claims.Role())
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions([]byte("secret-a")), "u-1", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token); err == nil {
		t.Fatal("wrong secret accepted")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	opts.TTL = time.Millisecond
	token, _, _, err := Generate(opts, "u-1", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	time.Sleep(1100 * time.Millisecond) // exp 精度是秒
	if _, err := Verify(opts, token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestUnsupportedAlg(t *testing.T) {
	opts := Options{Secret: []byte("x"), Alg: "RS256"}
	if _, _, _, err := Generate(opts, "u-1", ""); err == nil {
		t.Fatal("RS256 should be rejected")
	}
}
