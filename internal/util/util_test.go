package util

import (
	"bytes"
	"testing"
)

func TestPasswordHash(t *testing.T) {
	h, err := HashPassword("correct horse", DefaultArgon2idParams())
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	t.Run("Matches", func(t *testing.T) {
		if !h.Matches("correct horse") {
			t.Error("expected password to match")
		}
	})

	t.Run("Mismatch", func(t *testing.T) {
		if h.Matches("correct horse ") {
			t.Error("expected different password to fail")
		}
	})

	t.Run("NormalizedForms", func(t *testing.T) {
		composed := "caf\u00e9"
		decomposed := "cafe\u0301"
		h2, err := HashPassword(composed, DefaultArgon2idParams())
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		if !h2.Matches(decomposed) {
			t.Error("expected NFKD-equivalent passwords to match")
		}
	})

	t.Run("SaltIsRandom", func(t *testing.T) {
		h2, _ := HashPassword("correct horse", DefaultArgon2idParams())
		if bytes.Equal(h.Salt, h2.Salt) {
			t.Error("expected distinct salts")
		}
	})

	t.Run("RejectBadKeyLen", func(t *testing.T) {
		params := DefaultArgon2idParams()
		params.KeyLen = 16
		if _, err := HashPassword("x", params); err == nil {
			t.Error("expected error for key length 16")
		}
	})
}

func TestRandomToken(t *testing.T) {
	a, err := RandomToken(24)
	if err != nil {
		t.Fatalf("RandomToken failed: %v", err)
	}
	b, _ := RandomToken(24)
	if len(a) != 32 {
		t.Errorf("expected 32 characters for 24 bytes, got %d", len(a))
	}
	if a == b {
		t.Error("tokens should be unique")
	}
}

func TestWipeBytes(t *testing.T) {
	b := []byte{1, 2, 3}
	WipeBytes(b)
	if !bytes.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("expected zeroed slice, got %v", b)
	}
}
