package crypto

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x42}, 32))
}

func TestNewAESEncryptorRejectsBadKeys(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"wrong length", base64.StdEncoding.EncodeToString([]byte("short"))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewAESEncryptor(tc.key); err == nil {
				t.Fatalf("expected error for key %q", tc.key)
			}
		})
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewAESEncryptor(testKey())
	if err != nil {
		t.Fatalf("create encryptor: %v", err)
	}

	plaintext := "session-handle-abc123"
	stored, err := EncryptString(enc, plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if stored == plaintext {
		t.Fatalf("ciphertext must differ from plaintext")
	}

	got, err := DecryptString(enc, stored)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != plaintext {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	enc, err := NewAESEncryptor(testKey())
	if err != nil {
		t.Fatalf("create encryptor: %v", err)
	}

	a, _ := EncryptString(enc, "same input")
	b, _ := EncryptString(enc, "same input")
	if a == b {
		t.Fatalf("random nonce must yield distinct ciphertexts")
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	enc, err := NewAESEncryptor(testKey())
	if err != nil {
		t.Fatalf("create encryptor: %v", err)
	}

	stored, err := EncryptString(enc, "session-handle")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(stored)
	raw[len(raw)-1] ^= 0xFF
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := DecryptString(enc, tampered); err == nil {
		t.Fatalf("tampered ciphertext must fail authentication")
	}
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	enc1, _ := NewAESEncryptor(testKey())
	enc2, _ := NewAESEncryptor(base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x24}, 32)))

	stored, err := EncryptString(enc1, "session-handle")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptString(enc2, stored); err == nil {
		t.Fatalf("wrong key must fail authentication")
	}
	if _, err := DecryptString(enc2, stored); err != nil && !strings.Contains(err.Error(), "decryption failed") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmptyStringsPassThrough(t *testing.T) {
	enc, _ := NewAESEncryptor(testKey())
	if s, err := EncryptString(enc, ""); err != nil || s != "" {
		t.Fatalf("empty plaintext should pass through, got %q err %v", s, err)
	}
	if s, err := DecryptString(enc, ""); err != nil || s != "" {
		t.Fatalf("empty ciphertext should pass through, got %q err %v", s, err)
	}
}
