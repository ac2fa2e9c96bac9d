package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// TokenCodec issues and verifies session tokens. The wire format is
// base64(claims_json) + "." + hex(HMAC-SHA256(secret, base64_string)),
// kept compatible with tokens issued by earlier deployments. Tokens are
// stateless: nothing is stored server-side and there is no revocation list.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

// Issue encodes a claims set for the subject, expiring after the configured TTL.
func (c *TokenCodec) Issue(sub, username, role string) (string, error) {
	claims := Claims{
		Sub:      sub,
		Username: username,
		Role:     role,
		Exp:      time.Now().Add(c.ttl).Unix(),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	encoded := base64.StdEncoding.EncodeToString(payload)
	return encoded + "." + c.sign(encoded), nil
}

// Verify recomputes the integrity code over the encoded claims, compares it in
// constant time, and rejects expired tokens.
func (c *TokenCodec) Verify(token string) (*Claims, error) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return nil, ErrMalformedToken
	}
	encoded, sig := token[:idx], token[idx+1:]

	expected, err := hex.DecodeString(sig)
	if err != nil {
		return nil, ErrMalformedToken
	}
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	if !hmac.Equal(mac.Sum(nil), expected) {
		return nil, ErrSignatureMismatch
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrMalformedToken
	}

	if claims.Exp < time.Now().Unix() {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}

func (c *TokenCodec) sign(encoded string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
