package gatehttp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// CookieName is the fixed session cookie name on every site.
const CookieName = "wf_session"

const tokenVersion = "v1"

// MintToken seals (brand, name, expiry) with the site's HMAC secret.
// Token shape: base64url(v1|brand|name|expUnix) "." hex(hmac-sha256).
// Stateless by design: rotating the secret invalidates every
// outstanding token at once.
func MintToken(brand, name, secret string, expires time.Time) string {
	payload := strings.Join([]string{tokenVersion, brand, name, strconv.FormatInt(expires.Unix(), 10)}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + signPayload(payload, secret)
}

// VerifyToken checks a presented token against the site identity, the
// current secret, and the clock. Malformed, expired, wrong-site, and
// wrong-signature tokens are indistinguishable: all return false.
func VerifyToken(token, brand, name, secret string, now time.Time) bool {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	payload := string(raw)

	// Signature first: nothing below is trusted until it checks out.
	want := signPayload(payload, secret)
	sigBytes, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	wantBytes, _ := hex.DecodeString(want)
	if !hmac.Equal(sigBytes, wantBytes) {
		return false
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 4 || parts[0] != tokenVersion {
		return false
	}
	if parts[1] != brand || parts[2] != name {
		return false
	}
	exp, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return false
	}
	return now.Unix() < exp
}

func signPayload(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// CookieValue extracts a named cookie from a raw Cookie header. Returns
// ("", false) when absent. Unlike (*http.Request).Cookie it tolerates
// quoted values and malformed neighboring pairs, so the session lookup
// cannot be masked by junk cookies from the hosted pages.
func CookieValue(header, name string) (string, bool) {
	for _, part := range strings.Split(header, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		if k == name {
			return strings.Trim(v, `"`), true
		}
	}
	return "", false
}
