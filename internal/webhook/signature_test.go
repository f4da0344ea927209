package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign256(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func sign1(body []byte, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return "sha1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_NoSecretIsPermissive(t *testing.T) {
	if !VerifySignature([]byte("anything"), "", "") {
		t.Fatal("empty secret should accept any request")
	}
	if !VerifySignature([]byte("anything"), "sha256=bogus", "") {
		t.Fatal("empty secret should accept even a bad header")
	}
}

func TestVerifySignature_MissingHeader(t *testing.T) {
	if VerifySignature([]byte("body"), "", "secret") {
		t.Fatal("missing header must be rejected when a secret is set")
	}
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	for _, h := range []string{"nodigest", "md5=abc", "sha256=", "sha256=zzzz"} {
		if VerifySignature([]byte("body"), h, "secret") {
			t.Fatalf("header %q must be rejected", h)
		}
	}
}

func TestVerifySignature_SHA256(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	secret := "app-secret"

	if !VerifySignature(body, sign256(body, secret), secret) {
		t.Fatal("valid sha256 signature rejected")
	}
	if VerifySignature(body, sign256(body, "other-secret"), secret) {
		t.Fatal("signature from wrong secret accepted")
	}
	if VerifySignature([]byte(`{"entry":[1]}`), sign256(body, secret), secret) {
		t.Fatal("signature over different body accepted")
	}
}

func TestVerifySignature_SHA1(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	secret := "app-secret"

	if !VerifySignature(body, sign1(body, secret), secret) {
		t.Fatal("valid sha1 signature rejected")
	}

	// Flip one hex character
	sig := sign1(body, secret)
	last := sig[len(sig)-1]
	flipped := byte('0')
	if last == '0' {
		flipped = '1'
	}
	if VerifySignature(body, sig[:len(sig)-1]+string(flipped), secret) {
		t.Fatal("tampered signature accepted")
	}
}
