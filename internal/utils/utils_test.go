package utils

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(8)
	if err != nil {
		t.Fatal(err)
	}
	if len(code) != 8 {
		t.Fatalf("length: got %d", len(code))
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("unexpected character %q", r)
		}
	}
	if def, _ := GenerateCode(0); len(def) != 6 {
		t.Errorf("default length: got %d", len(def))
	}
}

func TestContactReference(t *testing.T) {
	ref, err := ContactReference(time.Date(2026, 10, 17, 23, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^MSG-20261017-[A-Z2-9]{6}$`).MatchString(ref) {
		t.Errorf("reference: %q", ref)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hashed, "s3cret!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hashed, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestSHA256Hex(t *testing.T) {
	if got := SHA256Hex("abc"); got != "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad" {
		t.Errorf("got %s", got)
	}
	a, _ := RandomHex(16)
	b, _ := RandomHex(16)
	if len(a) != 32 || a == b {
		t.Errorf("random hex: %q %q", a, b)
	}
}
