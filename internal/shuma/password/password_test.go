package password_test

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shuma-massage/shuma-backend/internal/shuma/password"
)

func TestHashVerify(t *testing.T) {
	h, err := password.Hash("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(h, "$2a$") {
		t.Errorf("unexpected hash format %q", h)
	}
	if err := password.Verify(h, "correct horse"); err != nil {
		t.Errorf("Verify correct: %v", err)
	}
	if err := password.Verify(h, "wrong"); !errors.Is(err, password.ErrMismatch) {
		t.Errorf("Verify wrong: expected ErrMismatch, got %v", err)
	}
}

func TestHash_OutOfRangeCostUsesDefault(t *testing.T) {
	h, err := password.Hash("pw", 99)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(h))
	if err != nil {
		t.Fatalf("Cost: %v", err)
	}
	if cost != password.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, password.DefaultCost)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	err := password.Verify("not-a-hash", "pw")
	if err == nil || errors.Is(err, password.ErrMismatch) {
		t.Errorf("expected non-mismatch error, got %v", err)
	}
}
