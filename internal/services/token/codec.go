package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidToken covers every verification failure: wrong shape, bad
// signature, undecodable payload, missing or past expiry. Callers never
// learn which check failed.
var ErrInvalidToken = errors.New("invalid or expired token")

// Payload is what a download token carries. Exp is epoch milliseconds.
type Payload struct {
	ProductID string `json:"productId"`
	SessionID string `json:"sessionId"`
	Exp       int64  `json:"exp"`
}

// Codec mints and verifies HMAC-SHA256 signed bearer tokens in the form
// base64url(json) + "." + base64url(signature). Both operations are pure
// functions of the input, the secret and the clock.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (c *Codec) Mint(productID, sessionID string, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", fmt.Errorf("token secret is empty")
	}
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("invalid token payload")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	payload := Payload{
		ProductID: productID,
		SessionID: sessionID,
		Exp:       c.now().Add(ttl).UnixMilli(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(raw)
	return encoded + "." + base64.RawURLEncoding.EncodeToString(c.sign(encoded)), nil
}

func (c *Codec) Verify(token string) (Payload, error) {
	if len(c.secret) == 0 {
		return Payload{}, fmt.Errorf("token secret is empty")
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Payload{}, ErrInvalidToken
	}

	supplied, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Payload{}, ErrInvalidToken
	}
	if !hmac.Equal(supplied, c.sign(parts[0])) {
		return Payload{}, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return Payload{}, ErrInvalidToken
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Payload{}, ErrInvalidToken
	}

	if payload.Exp <= 0 || c.now().UnixMilli() > payload.Exp {
		return Payload{}, ErrInvalidToken
	}

	return payload, nil
}

func (c *Codec) sign(encodedPayload string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedPayload))
	return mac.Sum(nil)
}
