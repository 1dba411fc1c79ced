package utils

import "testing"

func TestNewTokenLengthAndUniqueness(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	b, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two tokens are identical")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	token, err := NewToken()
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	h1 := HashToken(token)
	h2 := HashToken(token)
	if h1 != h2 {
		t.Error("hash is not deterministic")
	}
	if h1 == token {
		t.Error("hash equals the token")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(h1))
	}
}

func TestCheckPassword(t *testing.T) {
	hashed, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("correct horse battery staple", hashed) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hashed) {
		t.Error("wrong password accepted")
	}
}
