package security

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("S3cure-Passphrase")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if strings.Contains(hash, "S3cure-Passphrase") {
		t.Fatalf("hash leaks plaintext")
	}
	if !strings.HasPrefix(hash, "argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", hash)
	}

	ok, err := VerifyPassword("S3cure-Passphrase", hash)
	if err != nil {
		t.Fatalf("verify password: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = VerifyPassword("wrong-password", hash)
	if err != nil {
		t.Fatalf("verify wrong password: %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("same-input-1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	second, err := HashPassword("same-input-1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not-a-hash",
		"argon2id$v=19$m=65536,t=3,p=4$!!!$!!!",
		"md5$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	} {
		ok, err := VerifyPassword("anything", encoded)
		if err != nil {
			t.Fatalf("verify %q: unexpected error %v", encoded, err)
		}
		if ok {
			t.Fatalf("verify %q: expected mismatch", encoded)
		}
	}
}

func TestConfigureArgon2Validation(t *testing.T) {
	if err := ConfigureArgon2(Argon2Config{Memory: 1024, Iterations: 3, Parallelism: 4, SaltLength: 16, KeyLength: 32}); err == nil {
		t.Fatalf("expected low memory config to be rejected")
	}
	if err := ConfigureArgon2(DefaultArgon2Config()); err != nil {
		t.Fatalf("expected default config to be accepted, got %v", err)
	}
}
