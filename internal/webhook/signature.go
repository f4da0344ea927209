package webhook

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// VerifySignature checks an X-Hub-Signature style header against the raw,
// unparsed request body. The platform signs the exact bytes it sends, so the
// check must run before any JSON decoding.
//
// With no secret configured every body passes: that is the documented
// permissive default for local setups, closed in production by configuring
// whatsapp.appSecret. With a secret, a missing or malformed header fails
// closed. Both the legacy "sha1=<hex>" and the current "sha256=<hex>" header
// forms are accepted, and the digest comparison is constant-time.
func VerifySignature(body []byte, header, secret string) bool {
	if secret == "" {
		return true
	}
	if header == "" {
		return false
	}

	algo, digest, ok := strings.Cut(header, "=")
	if !ok || digest == "" {
		return false
	}

	var mac hash.Hash
	switch algo {
	case "sha1":
		mac = hmac.New(sha1.New, []byte(secret))
	case "sha256":
		mac = hmac.New(sha256.New, []byte(secret))
	default:
		return false
	}

	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(digest))
}
