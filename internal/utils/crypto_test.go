package utils

import (
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	SetEncryptionKey("unit-test-key")
	defer SetEncryptionKey("")

	plain := `{"pix_key":"+5511999990001"}`
	encrypted, err := EncryptString(plain)
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}
	if encrypted == plain {
		t.Fatal("ciphertext must differ from plaintext")
	}

	decrypted, err := DecryptString(encrypted)
	if err != nil {
		t.Fatalf("DecryptString: %v", err)
	}
	if decrypted != plain {
		t.Errorf("round trip = %q, expected %q", decrypted, plain)
	}
}

func TestEncrypt_DisabledKeyPassesThrough(t *testing.T) {
	SetEncryptionKey("")

	out, err := EncryptString("plain")
	if err != nil || out != "plain" {
		t.Errorf("disabled encryption: out=%q err=%v", out, err)
	}
	out, err = DecryptString("plain")
	if err != nil || out != "plain" {
		t.Errorf("disabled decryption: out=%q err=%v", out, err)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	SetEncryptionKey("key-one")
	encrypted, err := EncryptString("secret payload")
	if err != nil {
		t.Fatalf("EncryptString: %v", err)
	}

	SetEncryptionKey("key-two")
	defer SetEncryptionKey("")
	if _, err := DecryptString(encrypted); err == nil {
		t.Error("payload encrypted with another key must not decrypt")
	}
}
