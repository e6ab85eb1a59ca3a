package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Qa1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Qa1" {
		t.Fatal("hash must not equal the plaintext password")
	}

	if !CheckPassword(hash, "Qa1") {
		t.Error("correct password must verify")
	}
	if CheckPassword(hash, "Qa2") {
		t.Error("wrong password must not verify")
	}
	if CheckPassword("not-a-bcrypt-hash", "Qa1") {
		t.Error("malformed hash must not verify")
	}
}

func TestHashPassword_Salted(t *testing.T) {
	first, err := HashPassword("Password1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := HashPassword("Password1")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password must differ")
	}
}
