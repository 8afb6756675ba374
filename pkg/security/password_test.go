package security_test

import (
	"strings"
	"testing"

	"github.com/angelmondragon/canyonbook-backend/pkg/config"
	"github.com/angelmondragon/canyonbook-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=16$m=8,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8,t=1,p=1$!!!$a2V5",
	} {
		if _, err := security.VerifyPassword("irrelevant", encoded); err != security.ErrInvalidHash {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	weak := testPasswordConfig()
	weak.ArgonMemoryKB = 8192
	hash, err := security.HashPassword("pw", weak)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !security.NeedsRehash(hash, testPasswordConfig()) {
		t.Fatal("expected weaker hash to need rehash")
	}
	if security.NeedsRehash(hash, weak) {
		t.Fatal("hash with current params should not need rehash")
	}
	if !security.NeedsRehash("garbage", weak) {
		t.Fatal("malformed hash should need rehash")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := security.GenerateCode("GV-", 8)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != 11 || !strings.HasPrefix(code, "GV-") {
			t.Fatalf("unexpected code %q", code)
		}
		if strings.ContainsAny(code[3:], "01IO") {
			t.Fatalf("code %q contains an ambiguous character", code)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Fatalf("codes look non-random: %d distinct of 50", len(seen))
	}
	if _, err := security.GenerateCode("X", 0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
