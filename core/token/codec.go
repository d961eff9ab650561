// Package token issues and verifies confirmation tokens: HMAC-SHA256 signed,
// expiring, self-contained. Nothing is stored server side; any process holding
// the same signing key can verify a token issued by another.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-booking-agent/core/errors"

	"github.com/gowebpki/jcs"
)

const separator = "."

var b64 = base64.RawURLEncoding.Strict()

type envelope struct {
	Args map[string]any `json:"args"`
	Exp  int64          `json:"exp"`
}

type Codec struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Codec)

// WithClock overrides the wall clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret string, opts ...Option) *Codec {
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs payload with an expiry ttl from now.
// Wire format: base64url(payload-json) "." base64url(mac), unpadded.
func (c *Codec) Issue(payload map[string]any, ttl time.Duration) (string, error) {
	if len(c.secret) == 0 {
		return "", errors.NewAppError(errors.ErrConfiguration, "signing key is not configured", nil)
	}
	if payload == nil {
		payload = map[string]any{}
	}

	raw, err := json.Marshal(envelope{
		Args: payload,
		Exp:  c.now().Add(ttl).Unix(),
	})
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "token payload is not serializable", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "token payload is not serializable", err)
	}

	return b64.EncodeToString(canonical) + separator + b64.EncodeToString(c.sign(canonical)), nil
}

// Verify checks the MAC and expiry and returns the signed payload. All failures
// carry the same ErrInvalidToken message; the cause is only in the wrapped error.
func (c *Codec) Verify(token string) (map[string]any, error) {
	if len(c.secret) == 0 {
		return nil, errors.NewAppError(errors.ErrConfiguration, "signing key is not configured", nil)
	}

	parts := strings.Split(token, separator)
	if len(parts) != 2 {
		return nil, invalid("malformed token")
	}

	body, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, invalid("payload is not base64url: %v", err)
	}
	mac, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, invalid("signature is not base64url: %v", err)
	}
	if !hmac.Equal(mac, c.sign(body)) {
		return nil, invalid("signature mismatch")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, invalid("payload is not json: %v", err)
	}
	if env.Args == nil || env.Exp == 0 {
		return nil, invalid("payload is missing args or exp")
	}
	if c.now().Unix() > env.Exp {
		return nil, invalid("token expired at %d", env.Exp)
	}

	return env.Args, nil
}

// ExpiresAt reads the expiry of an already verified token.
func ExpiresAt(token string) (time.Time, error) {
	parts := strings.Split(token, separator)
	if len(parts) != 2 {
		return time.Time{}, invalid("malformed token")
	}
	body, err := b64.DecodeString(parts[0])
	if err != nil {
		return time.Time{}, invalid("payload is not base64url: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return time.Time{}, invalid("payload is not json: %v", err)
	}
	return time.Unix(env.Exp, 0), nil
}

func (c *Codec) sign(body []byte) []byte {
	h := hmac.New(sha256.New, c.secret)
	h.Write(body)
	return h.Sum(nil)
}

func invalid(format string, args ...any) error {
	return errors.NewAppError(errors.ErrInvalidToken, "invalid token", fmt.Errorf(format, args...))
}
